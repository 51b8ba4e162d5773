package ai

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// SkillQuestionCount is the number of MCQ items in a generated test.
const SkillQuestionCount = 15

// InterviewQuestionCount is the number of prompts in a generated interview.
const InterviewQuestionCount = 5

const defaultCredibilityScore = 75

// Local is the deterministic/heuristic generator used whenever the remote
// model is unavailable. It never returns an error.
type Local struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocal returns a Local seeded from the clock.
func NewLocal() *Local {
	seed := uint64(time.Now().UnixNano())
	return NewLocalWithSource(rand.NewPCG(seed, seed>>1|1))
}

// NewLocalWithSource returns a Local drawing randomness from src.
func NewLocalWithSource(src rand.Source) *Local {
	return &Local{rng: rand.New(src)}
}

// ParseResumeText extracts skills by keyword and fills the remaining fields
// with placeholder entries.
func (l *Local) ParseResumeText(_ context.Context, text string) (ParsedResume, error) {
	credibility := float64(defaultCredibilityScore)
	return ParsedResume{
		Skills:           ExtractSkills(text),
		Experience:       []database.ExperienceEntry{{Company: "Sample Co", Role: "Developer", Years: 2}},
		Projects:         []database.ProjectEntry{{Name: "Sample Project", Description: "Description", Tech: []string{"Node.js"}}},
		CredibilityScore: &credibility,
	}, nil
}

// GenerateSkillQuestions draws exactly SkillQuestionCount questions from the
// topic banks matching skills, topping up from the default bank.
func (l *Local) GenerateSkillQuestions(_ context.Context, skills []string) ([]database.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]struct{}, len(skills))
	questions := make([]database.Question, 0, SkillQuestionCount)
	for _, raw := range skills {
		skill := strings.ToLower(strings.TrimSpace(raw))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		for _, bank := range topicBank {
			if strings.Contains(skill, bank.topic) || strings.Contains(bank.topic, skill) {
				questions = append(questions, bank.questions...)
			}
		}
	}

	if needed := SkillQuestionCount - len(questions); needed > 0 {
		defaults := append([]database.Question(nil), defaultBank...)
		l.rng.Shuffle(len(defaults), func(i, j int) { defaults[i], defaults[j] = defaults[j], defaults[i] })
		questions = append(questions, defaults[:min(needed, len(defaults))]...)
	}
	for len(questions) < SkillQuestionCount {
		questions = append(questions, questions[l.rng.IntN(len(questions))])
	}

	l.rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	return cloneQuestions(questions[:SkillQuestionCount]), nil
}

// GenerateInterviewQuestions returns the fixed template for role.
func (l *Local) GenerateInterviewQuestions(_ context.Context, role, _ string) ([]string, error) {
	return interviewTemplate(role), nil
}

// ScoreResponse rates a transcript by length with random jitter.
func (l *Local) ScoreResponse(_ context.Context, _ string, transcript string) (ResponseScore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lengthScore := min(float64(utf8.RuneCountInString(transcript))/5, 100)
	relevance := clampScore(int(lengthScore) - l.rng.IntN(20))
	sentiment := 70 + l.rng.IntN(30)
	return ResponseScore{Relevance: relevance, Sentiment: sentiment}, nil
}

// cloneQuestions copies option slices so duplicated bank entries never share
// backing arrays with the package-level banks.
func cloneQuestions(in []database.Question) []database.Question {
	out := make([]database.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
