package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// AdminHandler 提供管理员统计与数据清理接口。删除均为物理删除。
type AdminHandler struct {
	db      *gorm.DB
	storage ObjectStore
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, storageClient ObjectStore) *AdminHandler {
	return &AdminHandler{db: db, storage: storageClient}
}

type statsResponse struct {
	TotalUsers      int64 `json:"totalUsers"`
	Candidates      int64 `json:"candidates"`
	Recruiters      int64 `json:"recruiters"`
	TotalJobs       int64 `json:"totalJobs"`
	TotalInterviews int64 `json:"totalInterviews"`
	TotalSkillTests int64 `json:"totalSkillTests"`
}

// Stats 返回系统计数。
func (h *AdminHandler) Stats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var stats statsResponse
	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&database.User{}), &stats.TotalUsers},
		{db.Model(&database.User{}).Where("role = ?", database.RoleCandidate), &stats.Candidates},
		{db.Model(&database.User{}).Where("role = ?", database.RoleRecruiter), &stats.Recruiters},
		{db.Model(&database.Job{}), &stats.TotalJobs},
		{db.Model(&database.Interview{}), &stats.TotalInterviews},
		{db.Model(&database.SkillTest{}), &stats.TotalSkillTests},
	}
	for _, item := range counts {
		if err := item.query.Count(item.dest).Error; err != nil {
			middleware.LoggerFromContext(c).Error("admin stats failed", slog.Any("error", err))
			Internal(c, "failed to load stats")
			return
		}
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers 返回全部用户，最新注册在前。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []database.User
	if err := h.db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		h.internal(c, "list users failed", err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(users, newUserView))
}

// ListJobs 返回全部职位（含已关闭）。
func (h *AdminHandler) ListJobs(c *gin.Context) {
	var jobs []database.Job
	if err := h.db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		h.internal(c, "list jobs failed", err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(jobs, newJobView))
}

// ListInterviews 返回全部面试及候选人信息。
func (h *AdminHandler) ListInterviews(c *gin.Context) {
	ctx := c.Request.Context()
	var interviews []database.Interview
	if err := h.db.WithContext(ctx).Preload("Candidate").Order("scheduled_at DESC, id DESC").Find(&interviews).Error; err != nil {
		h.internal(c, "list interviews failed", err)
		return
	}
	views := make([]interviewView, 0, len(interviews))
	for _, i := range interviews {
		views = append(views, newInterviewView(ctx, h.storage, i))
	}
	c.JSON(http.StatusOK, views)
}

// ListResumes 返回全部简历及解析结果。
func (h *AdminHandler) ListResumes(c *gin.Context) {
	var list []database.Resume
	if err := h.db.WithContext(c.Request.Context()).Preload("Analysis").Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		h.internal(c, "list resumes failed", err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, newResumeView))
}

// DeleteUser 删除用户。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	h.deleteByID(c, &database.User{}, "User")
}

// DeleteJob 删除职位及其申请。
func (h *AdminHandler) DeleteJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("job_id = ?", id).Delete(&database.JobApplication{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		return hardDelete(tx, &database.Job{}, id)
	})
	h.writeDeleteResult(c, err, "Job")
}

// DeleteInterview 删除面试会话。
func (h *AdminHandler) DeleteInterview(c *gin.Context) {
	h.deleteByID(c, &database.Interview{}, "Interview")
}

// DeleteResume 删除简历记录、解析结果以及存储中的文件。
func (h *AdminHandler) DeleteResume(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("resume_id", uint64(id)))

	var resume database.Resume
	if err := h.db.WithContext(ctx).Unscoped().First(&resume, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Resume not found")
			return
		}
		h.internal(c, "load resume failed", err)
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("resume_id = ?", id).Delete(&database.ResumeAnalysis{}).Error; err != nil {
			return fmt.Errorf("delete analysis: %w", err)
		}
		return hardDelete(tx, &database.Resume{}, id)
	})
	if err != nil {
		h.writeDeleteResult(c, err, "Resume")
		return
	}

	if resume.ObjectKey != "" && h.storage != nil {
		if err := h.storage.DeleteObject(ctx, resume.ObjectKey); err != nil {
			// 记录已删除，残留对象只记日志。
			logger.Warn("delete resume object failed", slog.String("object_key", resume.ObjectKey), slog.Any("error", err))
		}
	}
	logger.Info("resume deleted by admin")
	c.JSON(http.StatusOK, gin.H{"message": "Resume deleted successfully"})
}

func (h *AdminHandler) deleteByID(c *gin.Context, model any, entity string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	err := hardDelete(h.db.WithContext(c.Request.Context()), model, id)
	h.writeDeleteResult(c, err, entity)
}

func (h *AdminHandler) writeDeleteResult(c *gin.Context, err error, entity string) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": entity + " deleted successfully"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, entity+" not found")
	default:
		h.internal(c, "delete "+entity+" failed", err)
	}
}

func (h *AdminHandler) internal(c *gin.Context, msg string, err error) {
	middleware.LoggerFromContext(c).Error(msg, slog.Any("error", err))
	Internal(c, "internal error")
}

// hardDelete 物理删除一行；不存在时返回 gorm.ErrRecordNotFound。
func hardDelete(tx *gorm.DB, model any, id uint) error {
	res := tx.Unscoped().Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
