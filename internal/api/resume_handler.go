package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resumes"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
)

// ResumeService 是简历处理器依赖的领域服务。
type ResumeService interface {
	Upload(ctx context.Context, userID uint, file resumes.StoredFile) (*database.Resume, error)
	ListByUser(ctx context.Context, userID uint) ([]database.Resume, error)
	Get(ctx context.Context, resumeID, userID uint) (*database.Resume, error)
}

// ResumeHandler 负责简历上传与解析状态查询。
type ResumeHandler struct {
	resumes ResumeService
	storage ObjectStore
	policy  uploadPolicy
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(resumeService ResumeService, storageClient ObjectStore, maxBytes int64, clamdAddr string) *ResumeHandler {
	return &ResumeHandler{
		resumes: resumeService,
		storage: storageClient,
		policy:  uploadPolicy{maxBytes: maxBytes, extensions: resumeExtensions, clamdAddr: clamdAddr},
	}
}

// UploadResume 保存简历文件并排队解析，立即返回 pending 状态。
func (h *ResumeHandler) UploadResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))
	ext, err := h.policy.check(file)
	if err != nil {
		status, msg := uploadError(err)
		if status == http.StatusInternalServerError {
			logger.Error("scan resume failed", slog.Any("error", err))
		}
		Error(c, status, msg)
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	ctx := c.Request.Context()
	objectKey := storage.ResumeKey(userID, ext)
	if err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentTypeOf(file)); err != nil {
		logger.Error("upload resume failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	resume, err := h.resumes.Upload(ctx, userID, resumes.StoredFile{
		FileName:      file.Filename,
		ObjectKey:     objectKey,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		writeServiceError(c, err, "failed to queue resume parsing")
		return
	}

	c.JSON(http.StatusCreated, newResumeView(*resume))
}

// ListResumes 列出当前用户的简历及解析结果。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	list, err := h.resumes.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "failed to list resumes")
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, newResumeView))
}

// GetResume 返回单份简历，用于轮询解析状态。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	resumeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	resume, err := h.resumes.Get(c.Request.Context(), resumeID, userID)
	if err != nil {
		writeServiceError(c, err, "failed to query resume")
		return
	}
	c.JSON(http.StatusOK, newResumeView(*resume))
}
