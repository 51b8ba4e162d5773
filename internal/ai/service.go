package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/metrics"
)

// Service tries the remote generator first and falls back to Local on any
// error, timeout or rate limit refusal. None of its methods fail.
type Service struct {
	remote  ContentGenerator
	local   *Local
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithRemote enables the remote path.
func WithRemote(remote ContentGenerator) ServiceOption {
	return func(s *Service) { s.remote = remote }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithRequestsPerMinute limits remote calls; zero leaves them unlimited.
func WithRequestsPerMinute(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		}
	}
}

// WithLocal replaces the fallback generator.
func WithLocal(local *Local) ServiceOption {
	return func(s *Service) { s.local = local }
}

// NewService assembles a Service. Without WithRemote only the local path runs.
func NewService(logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		local:   NewLocal(),
		timeout: 20 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseResumeText returns structured resume fields.
func (s *Service) ParseResumeText(ctx context.Context, text string) ParsedResume {
	out, _ := callWithFallback(ctx, s, "parse_resume",
		func(ctx context.Context, g ContentGenerator) (ParsedResume, error) {
			return g.ParseResumeText(ctx, text)
		})
	return out
}

// GenerateSkillQuestions returns exactly SkillQuestionCount MCQ items.
func (s *Service) GenerateSkillQuestions(ctx context.Context, skills []string) []database.Question {
	out, _ := callWithFallback(ctx, s, "skill_questions",
		func(ctx context.Context, g ContentGenerator) ([]database.Question, error) {
			return g.GenerateSkillQuestions(ctx, skills)
		})
	return out
}

// GenerateInterviewQuestions returns exactly InterviewQuestionCount prompts.
func (s *Service) GenerateInterviewQuestions(ctx context.Context, role, description string) []string {
	out, _ := callWithFallback(ctx, s, "interview_questions",
		func(ctx context.Context, g ContentGenerator) ([]string, error) {
			return g.GenerateInterviewQuestions(ctx, role, description)
		})
	return out
}

// ScoreResponse rates transcript as an answer to question.
func (s *Service) ScoreResponse(ctx context.Context, question, transcript string) ResponseScore {
	out, _ := callWithFallback(ctx, s, "score_response",
		func(ctx context.Context, g ContentGenerator) (ResponseScore, error) {
			return g.ScoreResponse(ctx, question, transcript)
		})
	return out
}

// callWithFallback reports whether the remote result was used.
func callWithFallback[T any](ctx context.Context, s *Service, op string, call func(context.Context, ContentGenerator) (T, error)) (T, bool) {
	if s.remote != nil {
		out, err := tryRemote(ctx, s, call)
		if err == nil {
			return out, true
		}
		metrics.ObserveAIFallback(op)
		s.logger.Warn("remote generation failed, using local fallback",
			slog.String("operation", op),
			slog.Any("error", err),
		)
	}

	// Local never fails; the context is not consulted.
	out, _ := call(context.WithoutCancel(ctx), s.local)
	return out, false
}

func tryRemote[T any](ctx context.Context, s *Service, call func(context.Context, ContentGenerator) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("rate limit: %w", err)
		}
	}
	return call(ctx, s.remote)
}
