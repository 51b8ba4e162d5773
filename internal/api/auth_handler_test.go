package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func createUserWithPassword(t *testing.T, s *testServer, email, password string, mutate func(*database.User)) database.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := database.User{Email: email, PasswordHash: hashed, FullName: "Test", Role: database.RoleCandidate, IsActive: true}
	if mutate != nil {
		mutate(&user)
	}
	// is_active 带 default:true，Create 会忽略 false 并回填 true。
	active := user.IsActive
	require.NoError(t, s.db.Create(&user).Error)
	if !active {
		require.NoError(t, s.db.Model(&user).Update("is_active", false).Error)
		user.IsActive = false
	}
	return user
}

func TestRegisterCreatesAccount(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    "Jane@Example.com",
		"password": "password123",
		"fullName": "Jane Doe",
		"role":     "recruiter",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[userView](t, rec)
	assert.Equal(t, "jane@example.com", view.Email)
	assert.Equal(t, database.RoleRecruiter, view.Role)
	assert.True(t, view.IsActive)

	var stored database.User
	require.NoError(t, s.db.Where("email = ?", "jane@example.com").First(&stored).Error)
	assert.True(t, auth.CheckPasswordHash("password123", stored.PasswordHash))
}

func TestRegisterDefaultsToCandidate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "cand@example.com", "password": "password123", "fullName": "Cand",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, database.RoleCandidate, decode[userView](t, rec).Role)
}

func TestRegisterRejectsDuplicatesAndAdminRole(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"email": "dup@example.com", "password": "password123", "fullName": "Dup"}

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/auth/register", "", body).Code)

	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", decode[gin.H](t, rec)["error"])

	rec = s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "boss@example.com", "password": "password123", "fullName": "Boss", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "short@example.com", "password": "short", "fullName": "Short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIssuesTokens(t *testing.T) {
	s := newTestServer(t)
	user := createUserWithPassword(t, s, "login@example.com", "password123", nil)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "LOGIN@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[tokenResponse](t, rec)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 15*60, resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := s.auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, database.RoleCandidate, claims.Role)

	var hasCookie bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshTokenCookieName && c.Value != "" {
			hasCookie = true
		}
	}
	assert.True(t, hasCookie)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	createUserWithPassword(t, s, "user@example.com", "password123", nil)
	createUserWithPassword(t, s, "off@example.com", "password123", func(u *database.User) { u.IsActive = false })

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "user@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "off@example.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateUserWithPasswordPersistsInactive(t *testing.T) {
	s := newTestServer(t)
	user := createUserWithPassword(t, s, "inactive@example.com", "password123", func(u *database.User) { u.IsActive = false })

	var stored database.User
	require.NoError(t, s.db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestChangePasswordClearsGate(t *testing.T) {
	s := newTestServer(t)
	user := createUserWithPassword(t, s, "admin@example.com", "initial-secret", func(u *database.User) {
		u.Role = database.RoleAdmin
		u.MustChangePassword = true
	})
	pair, err := s.auth.GenerateTokenPair(user)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/v1/users/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/change-password", pair.AccessToken, gin.H{
		"current_password": "initial-secret",
		"new_password":     "brand-new-secret",
		"confirm_password": "brand-new-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[tokenResponse](t, rec)
	assert.False(t, resp.MustChangePassword)

	rec = s.do(t, http.MethodGet, "/v1/users/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stored database.User
	require.NoError(t, s.db.First(&stored, user.ID).Error)
	assert.False(t, stored.MustChangePassword)
	assert.True(t, auth.CheckPasswordHash("brand-new-secret", stored.PasswordHash))
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	s := newTestServer(t)
	user := createUserWithPassword(t, s, "cp@example.com", "password123", nil)
	pair, err := s.auth.GenerateTokenPair(user)
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/v1/auth/change-password", pair.AccessToken, gin.H{
		"current_password": "not-my-password",
		"new_password":     "another-secret",
		"confirm_password": "another-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
