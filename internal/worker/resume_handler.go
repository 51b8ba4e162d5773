package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/errcode"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resumes"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/tasks"
)

// ResumeProcessor 执行一次完整的简历解析。
type ResumeProcessor interface {
	Process(ctx context.Context, resumeID uint) (*resumes.Outcome, error)
}

// ResumeParseHandler 负责消费 resume:parse 任务。
type ResumeParseHandler struct {
	processor    ResumeProcessor
	publisher    Publisher
	logger       *slog.Logger
	finalAttempt func(ctx context.Context) bool
}

// NewResumeParseHandler 创建任务处理器。
func NewResumeParseHandler(processor ResumeProcessor, publisher Publisher, logger *slog.Logger) *ResumeParseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeParseHandler{
		processor:    processor,
		publisher:    publisher,
		logger:       logger,
		finalAttempt: isFinalAsynqAttempt,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ResumeParseHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	payload, err := tasks.ParseResumeParsePayload(t)
	if err != nil {
		log.Error("decode task payload failed", slog.Any("error", err))
		// 负载损坏重试也无意义。
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)
	log.Info("starting resume parse task")

	outcome, err := h.processor.Process(ctx, payload.ResumeID)
	if err != nil {
		log.Error("resume parse failed", slog.Any("error", err))
		if outcome != nil && outcome.Resume != nil && h.finalAttempt(ctx) {
			h.notify(ctx, log, outcome.Resume.UserID, ResumeParseNotifyMessage{
				Type:          tasks.TypeResumeParse,
				Status:        "failed",
				ResumeID:      payload.ResumeID,
				CorrelationID: payload.CorrelationID,
				ErrorCode:     errcode.SystemError,
				ErrorMessage:  strings.TrimSpace(err.Error()),
			})
		}
		return err
	}
	if outcome == nil {
		return nil
	}

	msg := ResumeParseNotifyMessage{
		Type:          tasks.TypeResumeParse,
		Status:        "completed",
		ResumeID:      payload.ResumeID,
		SkillTestID:   outcome.SkillTestID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	switch {
	case outcome.UsedPlaceholder:
		msg.ErrorCode = errcode.TextFallback
		msg.ErrorMessage = "resume text could not be read; default skills were used"
	case outcome.AssessmentFailed:
		msg.ErrorCode = errcode.AssessmentUnavailable
		msg.ErrorMessage = "personalized assessment could not be generated"
	}
	h.notify(ctx, log, outcome.Resume.UserID, msg)

	log.Info("resume parse task completed")
	return nil
}

// notify 只记录发布失败：解析结果已落库，前端仍可轮询。
func (h *ResumeParseHandler) notify(ctx context.Context, log *slog.Logger, userID uint, msg ResumeParseNotifyMessage) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, userID, msg); err != nil {
		log.Error("publish resume notification failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
