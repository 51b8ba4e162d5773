package ai

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func newSeededLocal() *Local {
	return NewLocalWithSource(rand.NewPCG(7, 11))
}

func assertWellFormed(t *testing.T, questions []database.Question) {
	t.Helper()
	require.Len(t, questions, SkillQuestionCount)
	for _, q := range questions {
		assert.NotEmpty(t, q.Question)
		assert.Len(t, q.Options, 4)
		assert.True(t, slices.Contains(q.Options, q.CorrectAnswer), "answer %q not among options of %q", q.CorrectAnswer, q.Question)
	}
}

func TestLocalSkillQuestionsAlwaysFifteen(t *testing.T) {
	inputs := [][]string{
		nil,
		{"Cobol"},
		{"React", "PostgreSQL"},
		{"JavaScript", "TypeScript", "Node.js", "React", "Python", "Java", "SQL"},
	}
	for _, skills := range inputs {
		questions, err := newSeededLocal().GenerateSkillQuestions(context.Background(), skills)
		require.NoError(t, err)
		assertWellFormed(t, questions)
	}
}

func TestLocalSkillQuestionsPreferMatchingTopics(t *testing.T) {
	questions, err := newSeededLocal().GenerateSkillQuestions(context.Background(), []string{"ReactJS"})
	require.NoError(t, err)

	var react int
	for _, q := range questions {
		for _, bank := range topicBank {
			if bank.topic == "react" && slices.ContainsFunc(bank.questions, func(b database.Question) bool { return b.Question == q.Question }) {
				react++
			}
		}
	}
	// 3 React questions plus 10 defaults leaves 2 duplicates, so every React
	// question must appear at least once.
	assert.GreaterOrEqual(t, react, 3)
}

func TestLocalSkillQuestionsDoNotAliasBank(t *testing.T) {
	questions, err := newSeededLocal().GenerateSkillQuestions(context.Background(), []string{"sql"})
	require.NoError(t, err)

	for i := range questions {
		questions[i].Options[0] = "mutated"
	}
	for _, q := range defaultBank {
		assert.NotEqual(t, "mutated", q.Options[0])
	}
}

func TestLocalInterviewTemplateUsesRole(t *testing.T) {
	questions, err := newSeededLocal().GenerateInterviewQuestions(context.Background(), "Backend Engineer", "ignored")
	require.NoError(t, err)

	require.Len(t, questions, InterviewQuestionCount)
	assert.Equal(t, "Tell me about your experience with Backend Engineer.", questions[0])
}

func TestLocalScoreResponseRanges(t *testing.T) {
	local := newSeededLocal()
	for _, transcript := range []string{"", "short answer", strings.Repeat("detailed ", 200)} {
		for range 50 {
			score, err := local.ScoreResponse(context.Background(), "q", transcript)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score.Relevance, 0)
			assert.LessOrEqual(t, score.Relevance, 100)
			assert.GreaterOrEqual(t, score.Sentiment, 70)
			assert.Less(t, score.Sentiment, 100)
		}
	}
}

func TestLocalScoreResponseLongAnswersScoreHigh(t *testing.T) {
	score, err := newSeededLocal().ScoreResponse(context.Background(), "q", strings.Repeat("x", 1000))
	require.NoError(t, err)

	assert.Greater(t, score.Relevance, 80)
}

func TestLocalScoreResponseCountsCharacters(t *testing.T) {
	ascii, err := newSeededLocal().ScoreResponse(context.Background(), "q", strings.Repeat("a", 200))
	require.NoError(t, err)
	wide, err := newSeededLocal().ScoreResponse(context.Background(), "q", strings.Repeat("面", 200))
	require.NoError(t, err)

	assert.Equal(t, ascii, wide)
}

func TestLocalParseResumeText(t *testing.T) {
	parsed, err := newSeededLocal().ParseResumeText(context.Background(), "Kubernetes and Redis")
	require.NoError(t, err)

	assert.Equal(t, []string{"Redis", "Kubernetes"}, parsed.Skills)
	require.Len(t, parsed.Experience, 1)
	assert.Equal(t, "Sample Co", parsed.Experience[0].Company)
	require.Len(t, parsed.Projects, 1)
	require.NotNil(t, parsed.CredibilityScore)
	assert.Equal(t, 75.0, *parsed.CredibilityScore)
}
