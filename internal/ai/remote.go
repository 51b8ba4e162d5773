package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

var errMalformedOutput = errors.New("malformed model output")

// Remote builds prompts for a TextGenerator and validates what comes back.
// Any transport or parse problem is returned as an error.
type Remote struct {
	gen TextGenerator
}

// NewRemote wraps gen.
func NewRemote(gen TextGenerator) *Remote {
	return &Remote{gen: gen}
}

// ParseResumeText asks the model for structured fields. Skills are always
// taken from the keyword extractor so labels stay canonical.
func (r *Remote) ParseResumeText(ctx context.Context, text string) (ParsedResume, error) {
	prompt := fmt.Sprintf(`Extract structured data from this resume.
Return ONLY a raw JSON object (no markdown formatting) with:
- "experience": array of {"company": string, "role": string, "years": number}
- "projects": array of {"name": string, "description": string, "tech": string[]}
- "credibilityScore": number (0-100) estimating how consistent and verifiable the resume is

Resume:
%s`, truncate(text, 20000))

	var out ParsedResume
	if err := r.generateJSON(ctx, prompt, &out); err != nil {
		return ParsedResume{}, err
	}
	if out.CredibilityScore != nil {
		v := float64(clampScore(int(*out.CredibilityScore)))
		out.CredibilityScore = &v
	}
	out.Skills = ExtractSkills(text)
	return out, nil
}

// GenerateSkillQuestions asks for SkillQuestionCount MCQ items about skills.
func (r *Remote) GenerateSkillQuestions(ctx context.Context, skills []string) ([]database.Question, error) {
	prompt := fmt.Sprintf(`Generate %d multiple choice technical interview questions based on these skills: %s.
Return ONLY a raw JSON array (no markdown formatting) where each object has:
- "question": string
- "options": string[] (4 options)
- "correctAnswer": string (must be one of the options)
Make them challenging but fair.`, SkillQuestionCount, strings.Join(skills, ", "))

	var items []database.Question
	if err := r.generateJSON(ctx, prompt, &items); err != nil {
		return nil, err
	}

	valid := make([]database.Question, 0, SkillQuestionCount)
	for _, q := range items {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
			continue
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			continue
		}
		valid = append(valid, database.Question{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
		if len(valid) == SkillQuestionCount {
			return valid, nil
		}
	}
	return nil, fmt.Errorf("%w: %d usable questions", errMalformedOutput, len(valid))
}

// GenerateInterviewQuestions asks for InterviewQuestionCount prompts for a role.
func (r *Remote) GenerateInterviewQuestions(ctx context.Context, role, description string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate %d interview questions for a %s role.
Job Description: %s.
Return ONLY a raw JSON array of strings.`, InterviewQuestionCount, role, description)

	var items []string
	if err := r.generateJSON(ctx, prompt, &items); err != nil {
		return nil, err
	}
	questions := make([]string, 0, InterviewQuestionCount)
	for _, q := range items {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
		if len(questions) == InterviewQuestionCount {
			return questions, nil
		}
	}
	return nil, fmt.Errorf("%w: %d usable questions", errMalformedOutput, len(questions))
}

// ScoreResponse asks the model to rate transcript against question.
func (r *Remote) ScoreResponse(ctx context.Context, question, transcript string) (ResponseScore, error) {
	prompt := fmt.Sprintf(`Evaluate this interview answer.
Question: %q
Answer: %q

Return ONLY a raw JSON object with:
- "relevanceScore": number (0-100)
- "sentimentScore": number (0-100)`, question, transcript)

	var raw struct {
		Relevance *float64 `json:"relevanceScore"`
		Sentiment *float64 `json:"sentimentScore"`
	}
	if err := r.generateJSON(ctx, prompt, &raw); err != nil {
		return ResponseScore{}, err
	}
	if raw.Relevance == nil || raw.Sentiment == nil {
		return ResponseScore{}, fmt.Errorf("%w: missing score fields", errMalformedOutput)
	}
	return ResponseScore{
		Relevance: clampScore(int(*raw.Relevance + 0.5)),
		Sentiment: clampScore(int(*raw.Sentiment + 0.5)),
	}, nil
}

func (r *Remote) generateJSON(ctx context.Context, prompt string, out any) error {
	text, err := r.gen.GenerateText(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate text: %w", err)
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		return fmt.Errorf("%w: %v", errMalformedOutput, err)
	}
	return nil
}

// extractJSON strips markdown fences and trims text to the outermost JSON
// object or array, whichever opens first.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	open := strings.IndexAny(text, "{[")
	if open == -1 {
		return text
	}
	closer := "}"
	if text[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= open {
		return text
	}
	return text[open : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
