// Package resumes runs resume intake: upload bookkeeping, background parsing
// into a ResumeAnalysis and the hand-off to the personalized test builder.
package resumes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/apperr"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// Dispatcher schedules background parsing of a resume.
type Dispatcher interface {
	DispatchParse(ctx context.Context, resumeID uint, correlationID string) error
}

// TextExtractor returns the text of a stored resume. It never fails; fellBack
// reports that placeholder text was used.
type TextExtractor interface {
	Extract(ctx context.Context, objectKey, fileName string) (text string, fellBack bool)
}

// ResumeParser turns resume text into structured fields.
type ResumeParser interface {
	ParseResumeText(ctx context.Context, text string) ai.ParsedResume
}

// TestBuilder creates the personalized skill test for a user.
type TestBuilder interface {
	BuildPersonalizedTest(ctx context.Context, userID uint, skills []string) (*database.SkillTest, error)
}

// StoredFile describes a resume file that already sits in object storage.
type StoredFile struct {
	FileName      string
	ObjectKey     string
	CorrelationID string
}

// Outcome is the result of one parsing pass.
type Outcome struct {
	Resume *database.Resume
	// UsedPlaceholder is set when the file text could not be read.
	UsedPlaceholder bool
	// SkillTestID is the personalized test built from this pass, 0 if none.
	SkillTestID uint
	// AssessmentFailed is set when skills were found but no test was built.
	AssessmentFailed bool
}

// Service owns Resume and ResumeAnalysis rows.
type Service struct {
	db         *gorm.DB
	dispatcher Dispatcher
	extractor  TextExtractor
	parser     ResumeParser
	builder    TestBuilder
	logger     *slog.Logger
}

// NewService constructs a Service. The API only needs db and dispatcher; the
// worker needs extractor, parser and builder.
func NewService(db *gorm.DB, dispatcher Dispatcher, extractor TextExtractor, parser ResumeParser, builder TestBuilder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:         db,
		dispatcher: dispatcher,
		extractor:  extractor,
		parser:     parser,
		builder:    builder,
		logger:     logger,
	}
}

// Upload records a pending resume for userID and schedules its parsing. It
// returns as soon as the task is queued.
func (s *Service) Upload(ctx context.Context, userID uint, file StoredFile) (*database.Resume, error) {
	resume := database.Resume{
		UserID:        userID,
		FileName:      file.FileName,
		ObjectKey:     file.ObjectKey,
		ParsingStatus: database.ParsingPending,
	}
	if err := s.db.WithContext(ctx).Create(&resume).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}

	if err := s.dispatcher.DispatchParse(ctx, resume.ID, file.CorrelationID); err != nil {
		s.setStatus(context.WithoutCancel(ctx), resume.ID, database.ParsingFailed)
		return nil, fmt.Errorf("dispatch resume parse: %w", err)
	}

	s.logger.Info("resume uploaded",
		slog.Uint64("resume_id", uint64(resume.ID)),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("correlation_id", file.CorrelationID),
	)
	return &resume, nil
}

// Process parses one resume end to end. The outcome is nil when the resume no
// longer exists. On error the resume is left failed.
func (s *Service) Process(ctx context.Context, resumeID uint) (*Outcome, error) {
	log := s.logger.With(slog.Uint64("resume_id", uint64(resumeID)))

	var resume database.Resume
	if err := s.db.WithContext(ctx).Preload("Analysis").First(&resume, resumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping parse")
			return nil, nil
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}
	log = log.With(slog.Uint64("user_id", uint64(resume.UserID)))

	// 已有分析结果说明之前的执行在最后一步前中断，只补状态。
	if resume.Analysis != nil {
		if err := s.updateStatus(ctx, &resume, database.ParsingCompleted); err != nil {
			return s.fail(ctx, &resume, err)
		}
		log.Info("resume already analysed, marked completed")
		return &Outcome{Resume: &resume}, nil
	}

	if err := s.updateStatus(ctx, &resume, database.ParsingProcessing); err != nil {
		return s.fail(ctx, &resume, err)
	}

	text, fellBack := s.extractor.Extract(ctx, resume.ObjectKey, resume.FileName)
	if fellBack {
		log.Warn("resume text unavailable, continuing with placeholder")
	}

	parsed := s.parser.ParseResumeText(ctx, text)
	analysis := database.ResumeAnalysis{
		ResumeID:         resume.ID,
		Skills:           datatypes.JSONSlice[string](parsed.Skills),
		Experience:       datatypes.JSONSlice[database.ExperienceEntry](parsed.Experience),
		Projects:         datatypes.JSONSlice[database.ProjectEntry](parsed.Projects),
		CredibilityScore: parsed.CredibilityScore,
	}
	if err := s.db.WithContext(ctx).Create(&analysis).Error; err != nil {
		return s.fail(ctx, &resume, fmt.Errorf("create resume analysis: %w", err))
	}
	resume.Analysis = &analysis

	outcome := &Outcome{Resume: &resume, UsedPlaceholder: fellBack}
	if len(parsed.Skills) > 0 {
		test, err := s.builder.BuildPersonalizedTest(ctx, resume.UserID, parsed.Skills)
		if err != nil {
			log.Error("build personalized test failed", slog.Any("error", err))
			outcome.AssessmentFailed = true
		} else {
			outcome.SkillTestID = test.ID
			log.Info("personalized test ready", slog.Uint64("skill_test_id", uint64(test.ID)))
		}
	}

	if err := s.updateStatus(ctx, &resume, database.ParsingCompleted); err != nil {
		return s.fail(ctx, &resume, err)
	}

	log.Info("resume parsed", slog.Int("skill_count", len(parsed.Skills)))
	return outcome, nil
}

// ListByUser returns userID's resumes with their analyses, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]database.Resume, error) {
	var resumes []database.Resume
	if err := s.db.WithContext(ctx).
		Preload("Analysis").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&resumes).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

// Get returns one of userID's resumes.
func (s *Service) Get(ctx context.Context, resumeID, userID uint) (*database.Resume, error) {
	var resume database.Resume
	if err := s.db.WithContext(ctx).Preload("Analysis").First(&resume, resumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Resume not found")
		}
		return nil, fmt.Errorf("get resume: %w", err)
	}
	if resume.UserID != userID {
		return nil, apperr.Forbidden("Not your resume")
	}
	return &resume, nil
}

// LatestSkills returns the skills of userID's most recent completed analysis,
// or nil when there is none.
func (s *Service) LatestSkills(ctx context.Context, userID uint) ([]string, error) {
	return LatestSkills(ctx, s.db, userID)
}

// LatestSkills is the query behind Service.LatestSkills, usable without a
// Service.
func LatestSkills(ctx context.Context, db *gorm.DB, userID uint) ([]string, error) {
	var analysis database.ResumeAnalysis
	err := db.WithContext(ctx).
		Joins("JOIN resumes ON resumes.id = resume_analyses.resume_id AND resumes.deleted_at IS NULL").
		Where("resumes.user_id = ? AND resumes.parsing_status = ?", userID, database.ParsingCompleted).
		Order("resume_analyses.created_at DESC, resume_analyses.id DESC").
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest resume analysis: %w", err)
	}
	return analysis.Skills, nil
}

func (s *Service) updateStatus(ctx context.Context, resume *database.Resume, status database.ParsingStatus) error {
	if err := s.db.WithContext(ctx).Model(&database.Resume{}).
		Where("id = ?", resume.ID).
		Update("parsing_status", status).Error; err != nil {
		return fmt.Errorf("set resume status %s: %w", status, err)
	}
	resume.ParsingStatus = status
	return nil
}

func (s *Service) fail(ctx context.Context, resume *database.Resume, cause error) (*Outcome, error) {
	// 原上下文可能已取消，失败状态仍需落库。
	s.setStatus(context.WithoutCancel(ctx), resume.ID, database.ParsingFailed)
	resume.ParsingStatus = database.ParsingFailed
	return &Outcome{Resume: resume}, cause
}

func (s *Service) setStatus(ctx context.Context, resumeID uint, status database.ParsingStatus) {
	if err := s.db.WithContext(ctx).Model(&database.Resume{}).
		Where("id = ?", resumeID).
		Update("parsing_status", status).Error; err != nil {
		s.logger.Error("update resume status failed",
			slog.Uint64("resume_id", uint64(resumeID)),
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
	}
}
