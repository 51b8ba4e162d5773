// Package skills manages skill tests: the shared seed test, personalized
// assessments built from resume skills, attempts and grading.
package skills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/apperr"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

const (
	personalizedTitle    = "Personalized Skill Assessment"
	personalizedDuration = 20
)

// QuestionGenerator supplies MCQ items for a skill set. It must not fail.
type QuestionGenerator interface {
	GenerateSkillQuestions(ctx context.Context, skills []string) []database.Question
}

// Service owns SkillTest and SkillTestAttempt rows.
type Service struct {
	db        *gorm.DB
	questions QuestionGenerator
	logger    *slog.Logger
	locks     userLocks
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(db *gorm.DB, questions QuestionGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, questions: questions, logger: logger, now: time.Now}
}

// EnsureSeedTest creates the shared starter test when no test exists yet.
func (s *Service) EnsureSeedTest(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.SkillTest{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count skill tests: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := database.SkillTest{
		Title:     "Backend & API Fundamentals",
		SkillTags: datatypes.JSONSlice[string]{"JavaScript", "TypeScript", "REST API", "Node.js"},
		Type:      database.TestTypeMCQ,
		Questions: datatypes.JSONSlice[database.Question]{
			{
				Question:      "What does REST stand for?",
				Options:       []string{"Representational State Transfer", "Remote Execution State Transfer", "Resource Endpoint Style Transfer"},
				CorrectAnswer: "Representational State Transfer",
			},
			{
				Question:      "Which HTTP method is used to create a resource?",
				Options:       []string{"GET", "POST", "PUT", "DELETE"},
				CorrectAnswer: "POST",
			},
			{
				Question:      "What is TypeScript?",
				Options:       []string{"A framework", "A superset of JavaScript with types", "A database"},
				CorrectAnswer: "A superset of JavaScript with types",
			},
		},
		DurationMinutes: 15,
		IsActive:        true,
	}
	if err := s.db.WithContext(ctx).Create(&seed).Error; err != nil {
		return fmt.Errorf("create seed skill test: %w", err)
	}
	s.logger.Info("seeded global skill test", slog.Uint64("skill_test_id", uint64(seed.ID)))
	return nil
}

// BuildPersonalizedTest creates a new active test for userID from skills and
// deactivates every earlier test the user owns. Calls for the same user are
// serialized.
func (s *Service) BuildPersonalizedTest(ctx context.Context, userID uint, skills []string) (*database.SkillTest, error) {
	questions := s.questions.GenerateSkillQuestions(ctx, skills)

	unlock := s.locks.lock(userID)
	defer unlock()

	owner := userID
	test := database.SkillTest{
		Title:           personalizedTitle,
		SkillTags:       datatypes.JSONSlice[string](append([]string(nil), skills...)),
		Type:            database.TestTypeMCQ,
		Questions:       datatypes.JSONSlice[database.Question](questions),
		DurationMinutes: personalizedDuration,
		IsActive:        true,
		UserID:          &owner,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁让其他进程中的同一用户构建串行执行。
		var user database.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if err := tx.Model(&database.SkillTest{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate previous tests: %w", err)
		}
		if err := tx.Create(&test).Error; err != nil {
			return fmt.Errorf("create personalized test: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("personalized skill test created",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("skill_test_id", uint64(test.ID)),
		slog.Int("question_count", len(test.Questions)),
	)
	return &test, nil
}

// ListTests returns active tests visible to userID, newest first. When tags
// is non-empty only tests sharing at least one tag (case-insensitive) remain.
func (s *Service) ListTests(ctx context.Context, userID uint, tags []string) ([]database.SkillTest, error) {
	var tests []database.SkillTest
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(user_id IS NULL OR user_id = ?)", userID).
		Order("created_at DESC, id DESC").
		Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("list skill tests: %w", err)
	}
	if len(tags) == 0 {
		return tests, nil
	}

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			wanted[tag] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return tests, nil
	}

	filtered := tests[:0]
	for _, test := range tests {
		for _, tag := range test.SkillTags {
			if _, ok := wanted[strings.ToLower(tag)]; ok {
				filtered = append(filtered, test)
				break
			}
		}
	}
	return filtered, nil
}

// GetTest loads one test.
func (s *Service) GetTest(ctx context.Context, testID uint) (*database.SkillTest, error) {
	var test database.SkillTest
	if err := s.db.WithContext(ctx).First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Skill test not found")
		}
		return nil, fmt.Errorf("get skill test: %w", err)
	}
	return &test, nil
}

// StartAttempt opens an in-progress attempt of testID for userID.
func (s *Service) StartAttempt(ctx context.Context, userID, testID uint) (*database.SkillTestAttempt, error) {
	test, err := s.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.UserID != nil && *test.UserID != userID {
		return nil, apperr.Forbidden("Not your test")
	}

	attempt := database.SkillTestAttempt{
		SkillTestID: test.ID,
		UserID:      userID,
		Status:      database.AttemptInProgress,
		StartedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	attempt.SkillTest = *test
	return &attempt, nil
}

// SubmitAttempt grades answers and completes the attempt. A completed attempt
// is never graded again.
func (s *Service) SubmitAttempt(ctx context.Context, attemptID, userID uint, answers map[int]string) (*database.SkillTestAttempt, error) {
	var attempt database.SkillTestAttempt
	if err := s.db.WithContext(ctx).Preload("SkillTest").First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Attempt not found")
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, apperr.Forbidden("Not your attempt")
	}
	if attempt.Status == database.AttemptCompleted {
		return nil, apperr.Forbidden("Already submitted")
	}

	correct, score := Grade(attempt.SkillTest.Questions, answers)
	completedAt := s.now()

	// 条件更新：并发提交时只有一个能把 in_progress 改为 completed。
	res := s.db.WithContext(ctx).Model(&database.SkillTestAttempt{}).
		Where("id = ? AND status = ?", attempt.ID, database.AttemptInProgress).
		Updates(map[string]any{
			"status":        database.AttemptCompleted,
			"answers":       datatypes.NewJSONType(answers),
			"score":         score,
			"correct_count": correct,
			"completed_at":  completedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("complete attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Forbidden("Already submitted")
	}

	attempt.Status = database.AttemptCompleted
	attempt.Answers = datatypes.NewJSONType(answers)
	attempt.Score = score
	attempt.CorrectCount = correct
	attempt.CompletedAt = &completedAt
	return &attempt, nil
}

// ListAttempts returns userID's attempts, most recently started first.
func (s *Service) ListAttempts(ctx context.Context, userID uint) ([]database.SkillTestAttempt, error) {
	var attempts []database.SkillTestAttempt
	if err := s.db.WithContext(ctx).
		Preload("SkillTest").
		Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
