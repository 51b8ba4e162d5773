package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// UserHandler 负责当前用户的资料读取与修改。
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler 构造 UserHandler。
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Me 返回当前登录用户。
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := h.loadCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

type updateProfileRequest struct {
	FullName    *string `json:"fullName" binding:"omitempty,min=1,max=255"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,max=512"`
	LinkedInURL *string `json:"linkedInUrl" binding:"omitempty,max=512"`
}

// UpdateProfile 更新姓名、头像与 LinkedIn 链接；未提供的字段保持不变。
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			BadRequest(c, "fullName must not be blank")
			return
		}
		updates["full_name"] = name
	}
	links := []struct {
		column, field string
		value         *string
	}{
		{"avatar_url", "avatarUrl", req.AvatarURL},
		{"linked_in_url", "linkedInUrl", req.LinkedInURL},
	}
	for _, l := range links {
		if l.value == nil {
			continue
		}
		link := strings.TrimSpace(*l.value)
		if link != "" && !isExternalURL(link) {
			BadRequest(c, l.field+" must be an http(s) URL")
			return
		}
		updates[l.column] = link
	}

	user, ok := h.loadCaller(c)
	if !ok {
		return
	}
	if len(updates) > 0 {
		db := h.db.WithContext(c.Request.Context())
		if err := db.Model(user).Updates(updates).Error; err != nil {
			middleware.LoggerFromContext(c).Error("update profile failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		if err := db.First(user, user.ID).Error; err != nil {
			middleware.LoggerFromContext(c).Error("reload user failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

func (h *UserHandler) loadCaller(c *gin.Context) (*database.User, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "User not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("load user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	return &user, true
}
