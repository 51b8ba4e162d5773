package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// SkillService 是技能测试处理器依赖的领域服务。
type SkillService interface {
	ListTests(ctx context.Context, userID uint, tags []string) ([]database.SkillTest, error)
	GetTest(ctx context.Context, testID uint) (*database.SkillTest, error)
	StartAttempt(ctx context.Context, userID, testID uint) (*database.SkillTestAttempt, error)
	SubmitAttempt(ctx context.Context, attemptID, userID uint, answers map[int]string) (*database.SkillTestAttempt, error)
	ListAttempts(ctx context.Context, userID uint) ([]database.SkillTestAttempt, error)
}

// SkillHandler 负责技能测试与作答。
type SkillHandler struct {
	skills SkillService
}

// NewSkillHandler 构造 SkillHandler。
func NewSkillHandler(skillService SkillService) *SkillHandler {
	return &SkillHandler{skills: skillService}
}

// ListTests 返回当前用户可见的测试，可按 ?tags=a,b 过滤。
func (h *SkillHandler) ListTests(c *gin.Context) {
	userID, role, ok := callerFromContext(c)
	if !ok {
		return
	}

	tests, err := h.skills.ListTests(c.Request.Context(), userID, splitCSV(c.Query("tags")))
	if err != nil {
		writeServiceError(c, err, "failed to list skill tests")
		return
	}
	c.JSON(http.StatusOK, mapSlice(tests, func(t database.SkillTest) skillTestView {
		return newSkillTestView(t, role.Elevated())
	}))
}

// GetTest 返回单套测试；候选人看不到正确答案，也看不到他人的个性化测试。
func (h *SkillHandler) GetTest(c *gin.Context) {
	userID, role, ok := callerFromContext(c)
	if !ok {
		return
	}
	testID, ok := idParam(c, "id")
	if !ok {
		return
	}

	test, err := h.skills.GetTest(c.Request.Context(), testID)
	if err != nil {
		writeServiceError(c, err, "failed to query skill test")
		return
	}
	if test.UserID != nil && *test.UserID != userID && !role.Elevated() {
		Forbidden(c, "Not your test")
		return
	}
	c.JSON(http.StatusOK, newSkillTestView(*test, role.Elevated()))
}

// StartAttempt 开始一次作答。
func (h *SkillHandler) StartAttempt(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	testID, ok := idParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.skills.StartAttempt(c.Request.Context(), userID, testID)
	if err != nil {
		writeServiceError(c, err, "failed to start attempt")
		return
	}
	c.JSON(http.StatusCreated, newAttemptView(*attempt))
}

type submitAttemptRequest struct {
	Answers map[int]string `json:"answers"`
}

// SubmitAttempt 提交答案并返回成绩。
func (h *SkillHandler) SubmitAttempt(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	attemptID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	attempt, err := h.skills.SubmitAttempt(c.Request.Context(), attemptID, userID, req.Answers)
	if err != nil {
		writeServiceError(c, err, "failed to submit attempt")
		return
	}
	c.JSON(http.StatusOK, newAttemptView(*attempt))
}

// ListAttempts 返回当前用户的作答历史。
func (h *SkillHandler) ListAttempts(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	attempts, err := h.skills.ListAttempts(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "failed to list attempts")
		return
	}
	c.JSON(http.StatusOK, mapSlice(attempts, newAttemptView))
}
