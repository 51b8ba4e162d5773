// Package jobs manages job postings and candidate applications.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/apperr"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// SkillSource returns a candidate's current skills, nil when unknown.
type SkillSource interface {
	LatestSkills(ctx context.Context, userID uint) ([]string, error)
}

// Actor identifies the caller of a write operation.
type Actor struct {
	UserID uint
	Role   database.Role
}

// JobInput carries the writable fields of a job. Nil fields are left alone by
// Update.
type JobInput struct {
	Title              *string
	Description        *string
	RequiredSkills     []string
	Location           *string
	Type               *string
	MinExperienceYears *int
	IsActive           *bool
}

// Service owns Job and JobApplication rows.
type Service struct {
	db     *gorm.DB
	skills SkillSource
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(db *gorm.DB, skills SkillSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, skills: skills, logger: logger}
}

// Create posts a new active job owned by actor.
func (s *Service) Create(ctx context.Context, actor Actor, in JobInput) (*database.Job, error) {
	if !actor.Role.Elevated() {
		return nil, apperr.Forbidden("Only recruiters can post jobs")
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("Title is required")
	}

	job := database.Job{
		Title:          strings.TrimSpace(*in.Title),
		RequiredSkills: datatypes.JSONSlice[string](cleanSkills(in.RequiredSkills)),
		IsActive:       true,
		PostedByID:     actor.UserID,
	}
	if in.Description != nil {
		job.Description = *in.Description
	}
	if in.Location != nil {
		job.Location = *in.Location
	}
	if in.Type != nil {
		job.Type = *in.Type
	}
	if in.MinExperienceYears != nil {
		if *in.MinExperienceYears < 0 {
			return nil, apperr.Validation("Minimum experience must not be negative")
		}
		job.MinExperienceYears = *in.MinExperienceYears
	}

	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	// is_active 列带默认值，零值 false 不会随 Create 写入。
	if in.IsActive != nil && !*in.IsActive {
		if err := s.db.WithContext(ctx).Model(&database.Job{}).Where("id = ?", job.ID).Update("is_active", false).Error; err != nil {
			return nil, fmt.Errorf("deactivate job: %w", err)
		}
		job.IsActive = false
	}
	s.logger.Info("job posted", slog.Uint64("job_id", uint64(job.ID)), slog.Uint64("posted_by", uint64(actor.UserID)))
	return &job, nil
}

// List returns active jobs, newest first. Recruiters only see their own.
func (s *Service) List(ctx context.Context, actor Actor) ([]database.Job, error) {
	query := s.db.WithContext(ctx).Where("is_active = ?", true)
	if actor.Role == database.RoleRecruiter {
		query = query.Where("posted_by_id = ?", actor.UserID)
	}
	var jobs []database.Job
	if err := query.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Get loads one job.
func (s *Service) Get(ctx context.Context, jobID uint) (*database.Job, error) {
	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Job not found")
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// Update changes the non-nil fields of a job. Only its poster or an admin may
// update it.
func (s *Service) Update(ctx context.Context, actor Actor, jobID uint, in JobInput) (*database.Job, error) {
	job, err := s.ownedJob(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("Title is required")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.RequiredSkills != nil {
		updates["required_skills"] = datatypes.JSONSlice[string](cleanSkills(in.RequiredSkills))
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.MinExperienceYears != nil {
		if *in.MinExperienceYears < 0 {
			return nil, apperr.Validation("Minimum experience must not be negative")
		}
		updates["min_experience_years"] = *in.MinExperienceYears
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return job, nil
	}

	if err := s.db.WithContext(ctx).Model(&database.Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return s.Get(ctx, job.ID)
}

// Apply records candidateID's application to jobID with a skill match score.
func (s *Service) Apply(ctx context.Context, candidateID, jobID uint) (*database.JobApplication, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, apperr.Validation("Job is closed")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&database.JobApplication{}).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check application: %w", err)
	}
	if existing > 0 {
		return nil, apperr.Forbidden("Already applied")
	}

	skills, err := s.skills.LatestSkills(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	score := ai.MatchScore(skills, job.RequiredSkills)

	application := database.JobApplication{
		JobID:       jobID,
		CandidateID: candidateID,
		Status:      database.ApplicationPending,
		MatchScore:  &score,
	}
	if err := s.db.WithContext(ctx).Create(&application).Error; err != nil {
		// 并发申请由 idx_job_candidate 兜底。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Forbidden("Already applied")
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &application, nil
}

// ApplicationsForJob lists a job's applications, best match first.
func (s *Service) ApplicationsForJob(ctx context.Context, actor Actor, jobID uint) ([]database.JobApplication, error) {
	if _, err := s.ownedJob(ctx, actor, jobID); err != nil {
		return nil, err
	}
	var applications []database.JobApplication
	if err := s.db.WithContext(ctx).
		Preload("Candidate").
		Where("job_id = ?", jobID).
		Order("match_score DESC, id ASC").
		Find(&applications).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

// Shortlist marks an application shortlisted.
func (s *Service) Shortlist(ctx context.Context, actor Actor, applicationID uint) (*database.JobApplication, error) {
	var application database.JobApplication
	if err := s.db.WithContext(ctx).First(&application, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Application not found")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	if _, err := s.ownedJob(ctx, actor, application.JobID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&database.JobApplication{}).
		Where("id = ?", application.ID).
		Update("status", database.ApplicationShortlisted).Error; err != nil {
		return nil, fmt.Errorf("shortlist application: %w", err)
	}
	application.Status = database.ApplicationShortlisted
	return &application, nil
}

func (s *Service) ownedJob(ctx context.Context, actor Actor, jobID uint) (*database.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.PostedByID != actor.UserID && actor.Role != database.RoleAdmin {
		return nil, apperr.Forbidden("Not your job posting")
	}
	return job, nil
}

func cleanSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, skill := range in {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
