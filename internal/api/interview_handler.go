package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
)

// InterviewService 是面试处理器依赖的领域服务。
type InterviewService interface {
	Schedule(ctx context.Context, candidateID uint, jobID *uint) (*database.Interview, error)
	SubmitResponse(ctx context.Context, interviewID, candidateID uint, index int, transcript string) (*database.Interview, error)
	Complete(ctx context.Context, interviewID, candidateID uint, videoURL string) (*database.Interview, error)
	Get(ctx context.Context, interviewID, userID uint, role database.Role) (*database.Interview, error)
	ListMine(ctx context.Context, candidateID uint) ([]database.Interview, error)
	ListAll(ctx context.Context) ([]database.Interview, error)
}

// InterviewHandler 负责面试会话。
type InterviewHandler struct {
	interviews InterviewService
	storage    ObjectStore
	policy     uploadPolicy
}

// NewInterviewHandler 构造 InterviewHandler。
func NewInterviewHandler(interviewService InterviewService, storageClient ObjectStore, maxVideoBytes int64, clamdAddr string) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviewService,
		storage:    storageClient,
		policy:     uploadPolicy{maxBytes: maxVideoBytes, extensions: videoExtensions, clamdAddr: clamdAddr},
	}
}

type scheduleInterviewRequest struct {
	JobID *uint `json:"jobId"`
}

// Schedule 为当前候选人安排一场面试。
func (h *InterviewHandler) Schedule(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req scheduleInterviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	interview, err := h.interviews.Schedule(c.Request.Context(), userID, req.JobID)
	if err != nil {
		writeServiceError(c, err, "failed to schedule interview")
		return
	}
	c.JSON(http.StatusCreated, newInterviewView(c.Request.Context(), h.storage, *interview))
}

// ListMine 返回当前候选人的面试。
func (h *InterviewHandler) ListMine(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	list, err := h.interviews.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "failed to list interviews")
		return
	}
	h.writeList(c, list)
}

// ListAll 返回全部面试，供招聘者与管理员查看。
func (h *InterviewHandler) ListAll(c *gin.Context) {
	list, err := h.interviews.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "failed to list interviews")
		return
	}
	h.writeList(c, list)
}

// Get 返回单场面试。
func (h *InterviewHandler) Get(c *gin.Context) {
	userID, role, ok := callerFromContext(c)
	if !ok {
		return
	}
	interviewID, ok := idParam(c, "id")
	if !ok {
		return
	}

	interview, err := h.interviews.Get(c.Request.Context(), interviewID, userID, role)
	if err != nil {
		writeServiceError(c, err, "failed to query interview")
		return
	}
	c.JSON(http.StatusOK, newInterviewView(c.Request.Context(), h.storage, *interview))
}

type submitResponseRequest struct {
	QuestionIndex *int   `json:"questionIndex" binding:"required"`
	Transcript    string `json:"transcript"`
}

// SubmitResponse 提交某道题的回答并返回评分后的面试。
func (h *InterviewHandler) SubmitResponse(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	interviewID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	interview, err := h.interviews.SubmitResponse(c.Request.Context(), interviewID, userID, *req.QuestionIndex, req.Transcript)
	if err != nil {
		writeServiceError(c, err, "failed to submit response")
		return
	}
	c.JSON(http.StatusOK, newInterviewView(c.Request.Context(), h.storage, *interview))
}

type completeInterviewRequest struct {
	VideoURL string `json:"videoUrl"`
}

// Complete 结束面试。视频可通过 multipart 字段 video 上传，或以 JSON 提供链接/对象键。
func (h *InterviewHandler) Complete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	interviewID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var videoURL string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		key, ok := h.uploadVideo(c, interviewID, userID)
		if !ok {
			return
		}
		videoURL = key
	} else if c.Request.ContentLength != 0 {
		var req completeInterviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
		videoURL = strings.TrimSpace(req.VideoURL)
		if videoURL != "" && !isExternalURL(videoURL) && !isValidInterviewVideoKey(interviewID, videoURL) {
			BadRequest(c, "invalid video reference")
			return
		}
	}

	interview, err := h.interviews.Complete(ctx, interviewID, userID, videoURL)
	if err != nil {
		writeServiceError(c, err, "failed to complete interview")
		return
	}
	c.JSON(http.StatusOK, newInterviewView(ctx, h.storage, *interview))
}

// uploadVideo 校验归属后上传视频，返回对象键。
func (h *InterviewHandler) uploadVideo(c *gin.Context, interviewID, userID uint) (string, bool) {
	ctx := c.Request.Context()
	interview, err := h.interviews.Get(ctx, interviewID, userID, database.RoleCandidate)
	if err != nil {
		writeServiceError(c, err, "failed to query interview")
		return "", false
	}

	file, err := c.FormFile("video")
	if err != nil {
		BadRequest(c, "missing video")
		return "", false
	}

	logger := middleware.LoggerFromContext(c).With(slog.Uint64("interview_id", uint64(interview.ID)))
	ext, err := h.policy.check(file)
	if err != nil {
		status, msg := uploadError(err)
		if status == http.StatusInternalServerError {
			logger.Error("scan interview video failed", slog.Any("error", err))
		}
		Error(c, status, msg)
		return "", false
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return "", false
	}
	defer reader.Close()

	objectKey := storage.InterviewVideoKey(interview.ID, ext)
	if err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentTypeOf(file)); err != nil {
		logger.Error("upload interview video failed", slog.Any("error", err))
		Internal(c, "failed to upload video")
		return "", false
	}
	return objectKey, true
}

func (h *InterviewHandler) writeList(c *gin.Context, list []database.Interview) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, mapSlice(list, func(i database.Interview) interviewView {
		return newInterviewView(ctx, h.storage, i)
	}))
}
