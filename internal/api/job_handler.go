package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/jobs"
)

// JobService 是职位处理器依赖的领域服务。
type JobService interface {
	Create(ctx context.Context, actor jobs.Actor, in jobs.JobInput) (*database.Job, error)
	List(ctx context.Context, actor jobs.Actor) ([]database.Job, error)
	Get(ctx context.Context, jobID uint) (*database.Job, error)
	Update(ctx context.Context, actor jobs.Actor, jobID uint, in jobs.JobInput) (*database.Job, error)
	Apply(ctx context.Context, candidateID, jobID uint) (*database.JobApplication, error)
	ApplicationsForJob(ctx context.Context, actor jobs.Actor, jobID uint) ([]database.JobApplication, error)
	Shortlist(ctx context.Context, actor jobs.Actor, applicationID uint) (*database.JobApplication, error)
}

// JobHandler 负责职位与申请。
type JobHandler struct {
	jobs JobService
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(jobService JobService) *JobHandler {
	return &JobHandler{jobs: jobService}
}

type jobRequest struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	RequiredSkills     []string `json:"requiredSkills"`
	Location           *string  `json:"location"`
	Type               *string  `json:"type"`
	MinExperienceYears *int     `json:"minExperienceYears"`
	IsActive           *bool    `json:"isActive"`
}

func (r jobRequest) input() jobs.JobInput {
	return jobs.JobInput{
		Title:              r.Title,
		Description:        r.Description,
		RequiredSkills:     r.RequiredSkills,
		Location:           r.Location,
		Type:               r.Type,
		MinExperienceYears: r.MinExperienceYears,
		IsActive:           r.IsActive,
	}
}

func actorFromContext(c *gin.Context) (jobs.Actor, bool) {
	userID, role, ok := callerFromContext(c)
	return jobs.Actor{UserID: userID, Role: role}, ok
}

// Create 发布职位。
func (h *JobHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		writeServiceError(c, err, "failed to create job")
		return
	}
	c.JSON(http.StatusCreated, newJobView(*job))
}

// List 返回在招职位；招聘者只看到自己发布的。
func (h *JobHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	list, err := h.jobs.List(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err, "failed to list jobs")
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, newJobView))
}

// Get 返回单个职位。
func (h *JobHandler) Get(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		writeServiceError(c, err, "failed to query job")
		return
	}
	c.JSON(http.StatusOK, newJobView(*job))
}

// Update 修改职位。
func (h *JobHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.Update(c.Request.Context(), actor, jobID, req.input())
	if err != nil {
		writeServiceError(c, err, "failed to update job")
		return
	}
	c.JSON(http.StatusOK, newJobView(*job))
}

// Apply 以当前候选人身份申请职位。
func (h *JobHandler) Apply(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	application, err := h.jobs.Apply(c.Request.Context(), userID, jobID)
	if err != nil {
		writeServiceError(c, err, "failed to apply")
		return
	}
	c.JSON(http.StatusCreated, newApplicationView(*application))
}

// Applications 返回某职位的申请，按匹配度排序。
func (h *JobHandler) Applications(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	list, err := h.jobs.ApplicationsForJob(c.Request.Context(), actor, jobID)
	if err != nil {
		writeServiceError(c, err, "failed to list applications")
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, newApplicationView))
}

// Shortlist 将申请标记为入围。
func (h *JobHandler) Shortlist(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	applicationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	application, err := h.jobs.Shortlist(c.Request.Context(), actor, applicationID)
	if err != nil {
		writeServiceError(c, err, "failed to shortlist application")
		return
	}
	c.JSON(http.StatusOK, newApplicationView(*application))
}
