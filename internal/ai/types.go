// Package ai produces assessment content and interview scores, preferring a
// remote generative model and falling back to local banks and heuristics.
package ai

import (
	"context"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// ParsedResume holds the structured fields derived from resume text.
type ParsedResume struct {
	Skills           []string                   `json:"skills"`
	Experience       []database.ExperienceEntry `json:"experience"`
	Projects         []database.ProjectEntry    `json:"projects"`
	CredibilityScore *float64                   `json:"credibilityScore"`
}

// ResponseScore rates one interview answer; both values lie in [0,100].
type ResponseScore struct {
	Relevance int `json:"relevanceScore"`
	Sentiment int `json:"sentimentScore"`
}

// ContentGenerator is implemented by both the remote and the local generator.
type ContentGenerator interface {
	ParseResumeText(ctx context.Context, text string) (ParsedResume, error)
	GenerateSkillQuestions(ctx context.Context, skills []string) ([]database.Question, error)
	GenerateInterviewQuestions(ctx context.Context, role, description string) ([]string, error)
	ScoreResponse(ctx context.Context, question, transcript string) (ResponseScore, error)
}

// TextGenerator sends a prompt to a generative model and returns its raw text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
