// Package interviews implements the interview session lifecycle:
// scheduling with generated questions, scored responses and completion.
package interviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/apperr"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// DefaultQuestions are asked when an interview is not tied to a job.
var DefaultQuestions = []string{
	"Tell us about yourself.",
	"What are your strengths?",
	"Describe a challenging situation you faced and how you handled it.",
	"Where do you see yourself in 5 years?",
	"Why do you want to work with us?",
}

// Generator produces interview questions and scores answers. It must not fail.
type Generator interface {
	GenerateInterviewQuestions(ctx context.Context, role, description string) []string
	ScoreResponse(ctx context.Context, question, transcript string) ai.ResponseScore
}

// Service owns Interview rows.
type Service struct {
	db        *gorm.DB
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(db *gorm.DB, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, generator: generator, logger: logger, now: time.Now}
}

// Schedule creates a scheduled interview for candidateID. With a job the
// questions are generated from its title and description.
func (s *Service) Schedule(ctx context.Context, candidateID uint, jobID *uint) (*database.Interview, error) {
	questions := append([]string(nil), DefaultQuestions...)
	if jobID != nil {
		var job database.Job
		if err := s.db.WithContext(ctx).First(&job, *jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Job not found")
			}
			return nil, fmt.Errorf("get job: %w", err)
		}
		questions = s.generator.GenerateInterviewQuestions(ctx, job.Title, job.Description)
	}

	interview := database.Interview{
		CandidateID: candidateID,
		JobID:       jobID,
		Status:      database.InterviewScheduled,
		Questions:   datatypes.JSONSlice[string](questions),
		Responses:   datatypes.NewJSONType(map[int]database.InterviewResponse{}),
		ScheduledAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&interview).Error; err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}

	s.logger.Info("interview scheduled",
		slog.Uint64("interview_id", uint64(interview.ID)),
		slog.Uint64("candidate_id", uint64(candidateID)),
	)
	return &interview, nil
}

// SubmitResponse scores transcript against the question at index and stores
// it in that slot, replacing any earlier answer.
func (s *Service) SubmitResponse(ctx context.Context, interviewID, candidateID uint, index int, transcript string) (*database.Interview, error) {
	if index < 0 {
		return nil, apperr.Validation("Question index must not be negative")
	}

	var interview database.Interview
	if err := findOwned(s.db.WithContext(ctx), &interview, interviewID, candidateID); err != nil {
		return nil, err
	}
	question := ""
	if index < len(interview.Questions) {
		question = interview.Questions[index]
	}
	// 评分可能访问远程模型，必须在事务外完成。
	score := s.generator.ScoreResponse(ctx, question, transcript)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 重新加锁读取，保留评分期间其他槽位的写入。
		if err := lockOwned(tx, &interview, interviewID, candidateID); err != nil {
			return err
		}

		responses := cloneResponses(interview.Responses.Data())
		responses[index] = database.InterviewResponse{
			Transcript:     transcript,
			RelevanceScore: score.Relevance,
			SentimentScore: score.Sentiment,
		}
		interview.Responses = datatypes.NewJSONType(responses)
		if err := tx.Model(&database.Interview{}).
			Where("id = ?", interview.ID).
			Update("responses", interview.Responses).Error; err != nil {
			return fmt.Errorf("save interview response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

// Complete finishes the interview: the overall score is the rounded mean
// relevance of all responses, or 0 without responses. videoURL replaces the
// stored video when non-empty.
func (s *Service) Complete(ctx context.Context, interviewID, candidateID uint, videoURL string) (*database.Interview, error) {
	var interview database.Interview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &interview, interviewID, candidateID); err != nil {
			return err
		}

		overall := OverallScore(interview.Responses.Data())
		completedAt := s.now()
		updates := map[string]any{
			"status":        database.InterviewCompleted,
			"overall_score": overall,
			"completed_at":  completedAt,
		}
		if videoURL != "" {
			updates["video_url"] = videoURL
			interview.VideoURL = videoURL
		}
		if err := tx.Model(&database.Interview{}).Where("id = ?", interview.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("complete interview: %w", err)
		}

		interview.Status = database.InterviewCompleted
		interview.OverallScore = &overall
		interview.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("interview completed",
		slog.Uint64("interview_id", uint64(interview.ID)),
		slog.Int("overall_score", *interview.OverallScore),
	)
	return &interview, nil
}

// Get returns an interview to its candidate or to any elevated role.
func (s *Service) Get(ctx context.Context, interviewID, userID uint, role database.Role) (*database.Interview, error) {
	var interview database.Interview
	if err := s.db.WithContext(ctx).First(&interview, interviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Interview not found")
		}
		return nil, fmt.Errorf("get interview: %w", err)
	}
	if interview.CandidateID != userID && !role.Elevated() {
		return nil, apperr.Forbidden("Not your interview")
	}
	return &interview, nil
}

// ListMine returns candidateID's interviews, latest scheduled first.
func (s *Service) ListMine(ctx context.Context, candidateID uint) ([]database.Interview, error) {
	var interviews []database.Interview
	if err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("scheduled_at DESC, id DESC").
		Find(&interviews).Error; err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return interviews, nil
}

// ListAll returns every interview with its candidate, latest scheduled first.
func (s *Service) ListAll(ctx context.Context) ([]database.Interview, error) {
	var interviews []database.Interview
	if err := s.db.WithContext(ctx).
		Preload("Candidate").
		Order("scheduled_at DESC, id DESC").
		Find(&interviews).Error; err != nil {
		return nil, fmt.Errorf("list all interviews: %w", err)
	}
	return interviews, nil
}

// OverallScore is the rounded mean relevance of responses, 0 when empty.
func OverallScore(responses map[int]database.InterviewResponse) int {
	if len(responses) == 0 {
		return 0
	}
	total := 0
	for _, r := range responses {
		total += r.RelevanceScore
	}
	return int(math.Round(float64(total) / float64(len(responses))))
}

func lockOwned(tx *gorm.DB, interview *database.Interview, interviewID, candidateID uint) error {
	return findOwned(tx.Clauses(clause.Locking{Strength: "UPDATE"}), interview, interviewID, candidateID)
}

func findOwned(db *gorm.DB, interview *database.Interview, interviewID, candidateID uint) error {
	*interview = database.Interview{}
	if err := db.First(interview, interviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Interview not found")
		}
		return fmt.Errorf("load interview: %w", err)
	}
	if interview.CandidateID != candidateID {
		return apperr.Forbidden("Not your interview")
	}
	return nil
}

func cloneResponses(in map[int]database.InterviewResponse) map[int]database.InterviewResponse {
	out := make(map[int]database.InterviewResponse, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
