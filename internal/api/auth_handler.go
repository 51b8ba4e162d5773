package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

const refreshTokenCookieName = "refresh_token"

// AuthHandler 处理注册、登录、刷新、退出与改密。
// 刷新令牌以 HttpOnly Cookie 下发，也接受 JSON 体中的 refresh_token。
type AuthHandler struct {
	db           *gorm.DB
	tokens       *auth.AuthService
	guard        *loginGuard
	cookieDomain string
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, tokens *auth.AuthService, redisClient redis.UniversalClient, cfg config.APIConfig) *AuthHandler {
	return &AuthHandler{
		db:           db,
		tokens:       tokens,
		guard:        newLoginGuard(redisClient, cfg),
		cookieDomain: strings.TrimSpace(cfg.CookieDomain),
	}
}

type registerRequest struct {
	Email    string        `json:"email" binding:"required,email,max=255"`
	Password string        `json:"password" binding:"required,min=8,max=72"`
	FullName string        `json:"fullName" binding:"required,max=255"`
	Role     database.Role `json:"role"`
}

// Register 创建新账号；角色只能是 candidate 或 recruiter，管理员由 cmd/admin 创建。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = database.RoleCandidate
	}
	if role != database.RoleCandidate && role != database.RoleRecruiter {
		BadRequest(c, "role must be candidate or recruiter")
		return
	}

	email := normalizeEmail(req.Email)
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	var taken int64
	if err := h.db.WithContext(ctx).Model(&database.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if taken > 0 {
		Conflict(c, "Email already registered")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	user := database.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", string(role)))
	c.JSON(http.StatusCreated, newUserView(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken        string   `json:"access_token"`
	TokenType          string   `json:"token_type"`
	ExpiresIn          int      `json:"expires_in"`
	MustChangePassword bool     `json:"must_change_password"`
	User               userView `json:"user"`
}

// Login 校验邮箱口令并签发令牌对。未知邮箱与错误口令同样返回 401 并计入失败次数。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	if ok, reason := h.guard.allow(ctx, c.ClientIP(), email); !ok {
		logger.Warn("login throttled", slog.String("reason", reason))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": reason})
		return
	}

	var user database.User
	err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		h.rejectLogin(c, logger, email, "unknown email")
		return
	case err != nil:
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.rejectLogin(c, logger.With(slog.Uint64("user_id", uint64(user.ID))), email, "password mismatch")
		return
	}
	if !user.IsActive {
		logger.Info("login refused: account disabled", slog.Uint64("user_id", uint64(user.ID)))
		Forbidden(c, "Account disabled")
		return
	}

	h.guard.recordSuccess(ctx, email)
	h.issueTokens(c, user)
}

func (h *AuthHandler) rejectLogin(c *gin.Context, logger *slog.Logger, email, reason string) {
	logger.Info("login failed", slog.String("reason", reason))
	if err := h.guard.recordFailure(c.Request.Context(), email); err != nil {
		logger.Debug("record login failure failed", slog.Any("error", err))
	}
	Unauthorized(c)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 轮换刷新令牌：旧令牌进入黑名单，返回新的令牌对。
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.extractRefreshToken(c)
	if token == "" {
		Unauthorized(c)
		return
	}
	claims, ok := h.liveRefreshClaims(c, token)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(claims.UserID)))

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		logger.Info("refresh user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if !user.IsActive {
		Forbidden(c, "Account disabled")
		return
	}

	if err := h.guard.revoke(ctx, claims.ID, h.refreshExpiry(claims)); err != nil {
		logger.Error("rotate refresh token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.issueTokens(c, user)
}

// Logout 注销刷新令牌并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	token := h.extractRefreshToken(c)
	if token == "" {
		BadRequest(c, "refresh token missing")
		return
	}
	claims, ok := h.liveRefreshClaims(c, token)
	if !ok {
		return
	}
	if err := h.guard.revoke(c.Request.Context(), claims.ID, h.refreshExpiry(claims)); err != nil {
		middleware.LoggerFromContext(c).Error("logout revoke failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.writeRefreshCookie(c, "", -1)
	c.Status(http.StatusOK)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=8,max=72"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required,min=8,max=72"`
}

// ChangePassword 校验当前密码后更新，清除 mustChangePassword 并重新签发令牌。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		BadRequest(c, "password confirmation does not match")
		return
	}
	if strings.TrimSpace(req.NewPassword) == strings.TrimSpace(req.CurrentPassword) {
		BadRequest(c, "new password must be different from current password")
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		logger.Info("change password: user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		logger.Info("change password: current password mismatch")
		Unauthorized(c)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password: hash failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if err := h.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password_hash":        hashed,
		"must_change_password": false,
	}).Error; err != nil {
		logger.Error("change password: update failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	// 旧的刷新令牌随改密作废。
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		if claims, err := h.tokens.ValidateToken(token); err == nil && claims.TokenType == auth.TokenTypeRefresh && claims.ID != "" {
			if err := h.guard.revoke(ctx, claims.ID, h.refreshExpiry(claims)); err != nil {
				logger.Error("change password: revoke refresh failed", slog.Any("error", err))
				Internal(c, "internal error")
				return
			}
		}
	}

	user.PasswordHash = hashed
	user.MustChangePassword = false
	logger.Info("password changed")
	h.issueTokens(c, user)
}

// liveRefreshClaims 校验刷新令牌的签名、类型、jti 与黑名单；失败时已写出响应。
func (h *AuthHandler) liveRefreshClaims(c *gin.Context, token string) (*auth.TokenClaims, bool) {
	logger := middleware.LoggerFromContext(c)
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c)
		return nil, false
	}
	if claims.TokenType != auth.TokenTypeRefresh || claims.ID == "" {
		logger.Info("refresh token rejected", slog.String("token_type", claims.TokenType))
		Unauthorized(c)
		return nil, false
	}

	revoked, err := h.guard.isRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	if revoked {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c)
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) refreshExpiry(claims *auth.TokenClaims) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(h.tokens.RefreshTokenTTL())
}

func (h *AuthHandler) issueTokens(c *gin.Context, user database.User) {
	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		middleware.LoggerFromContext(c).Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.writeRefreshCookie(c, pair.RefreshToken, int(h.tokens.RefreshTokenTTL().Seconds()))
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:        pair.AccessToken,
		TokenType:          "Bearer",
		ExpiresIn:          int(h.tokens.AccessTokenTTL().Seconds()),
		MustChangePassword: user.MustChangePassword,
		User:               newUserView(user),
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// writeRefreshCookie 写入刷新令牌 Cookie；maxAge 小于 0 时删除。
func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   h.cookieDomain,
		Secure:   isHTTPSRequest(c.Request),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	http.SetCookie(c.Writer, cookie)
}

func isHTTPSRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
