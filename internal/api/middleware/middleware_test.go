package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

type fakeValidator map[string]*auth.TokenClaims

func (f fakeValidator) ValidateToken(token string) (*auth.TokenClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, errors.New("bad token")
}

func newGuardedRouter(roles ...database.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := fakeValidator{
		"candidate": {UserID: 1, Role: database.RoleCandidate, TokenType: auth.TokenTypeAccess},
		"recruiter": {UserID: 2, Role: database.RoleRecruiter, TokenType: auth.TokenTypeAccess},
		"refresh":   {UserID: 1, Role: database.RoleCandidate, TokenType: auth.TokenTypeRefresh},
		"locked":    {UserID: 3, Role: database.RoleAdmin, TokenType: auth.TokenTypeAccess, MustChangePassword: true},
	}
	r := gin.New()
	r.Use(CorrelationIDMiddleware())
	group := r.Group("/", AuthMiddleware(validator), RequirePasswordChanged())
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(UserIDKey), "role": RoleFromContext(c)})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newGuardedRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "refresh").Code)

	w := get(r, "recruiter")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2,"role":"recruiter"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestRequireRoles(t *testing.T) {
	r := newGuardedRouter(database.RoleRecruiter, database.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, get(r, "candidate").Code)
	assert.Equal(t, http.StatusOK, get(r, "recruiter").Code)
}

func TestPasswordGateBlocksPendingChange(t *testing.T) {
	r := newGuardedRouter()

	w := get(r, "locked")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Password change required"}`, w.Body.String())
}

func TestCorrelationIDHeader(t *testing.T) {
	r := newGuardedRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer candidate")
	req.Header.Set(CorrelationIDHeader, "req-42.a_b")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42.a_b", w.Header().Get(CorrelationIDHeader))

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("x", 65)} {
		req.Header.Set(CorrelationIDHeader, bad)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		got := w.Header().Get(CorrelationIDHeader)
		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36)
	}
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, requestLevel("/health", http.StatusOK))
	assert.Equal(t, slog.LevelInfo, requestLevel("/v1/jobs", http.StatusOK))
	assert.Equal(t, slog.LevelWarn, requestLevel("/v1/jobs", http.StatusForbidden))
	assert.Equal(t, slog.LevelError, requestLevel("/health", http.StatusInternalServerError))
}
