package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func TestUploadResumeQueuesParsing(t *testing.T) {
	s := newTestServer(t)
	user, token := s.userWithToken(t, "cand@example.com", database.RoleCandidate)

	rec := s.upload(t, "/v1/resumes", token, "file", "cv.txt", []byte("Go and PostgreSQL engineer"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decode[resumeView](t, rec)
	assert.Equal(t, database.ParsingPending, view.ParsingStatus)
	assert.Equal(t, "cv.txt", view.FileName)
	assert.Nil(t, view.Analysis)
	assert.Equal(t, []uint{view.ID}, s.dispatcher.ids)

	keys := s.storage.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], fmt.Sprintf("resumes/%d/", user.ID)))
	assert.True(t, strings.HasSuffix(keys[0], ".txt"))
}

func TestUploadResumeRejectsBadFiles(t *testing.T) {
	s := newTestServer(t)
	_, token := s.userWithToken(t, "cand@example.com", database.RoleCandidate)

	rec := s.upload(t, "/v1/resumes", token, "file", "cv.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported file type", decode[gin.H](t, rec)["error"])

	rec = s.upload(t, "/v1/resumes", token, "attachment", "cv.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(t, "/v1/resumes", token, "file", "huge.txt", make([]byte, 2<<20))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, s.storage.keys())
	assert.Empty(t, s.dispatcher.ids)
}

func TestUploadResumeRequiresCandidate(t *testing.T) {
	s := newTestServer(t)
	_, token := s.userWithToken(t, "rec@example.com", database.RoleRecruiter)

	rec := s.upload(t, "/v1/resumes", token, "file", "cv.txt", []byte("text"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", decode[gin.H](t, rec)["error"])
}

func TestGetResumeChecksOwnership(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.userWithToken(t, "owner@example.com", database.RoleCandidate)
	_, otherToken := s.userWithToken(t, "other@example.com", database.RoleCandidate)

	rec := s.upload(t, "/v1/resumes", ownerToken, "file", "cv.txt", []byte("React developer"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[resumeView](t, rec).ID
	path := fmt.Sprintf("/v1/resumes/%d", id)

	rec = s.do(t, http.MethodGet, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[resumeView](t, rec).ID)

	rec = s.do(t, http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/resumes/999", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/resumes/abc", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/resumes", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]resumeView](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/v1/resumes", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]resumeView](t, rec))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/users/me", "/v1/resumes", "/v1/skills/tests", "/v1/jobs", "/v1/admin/stats"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/v1/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[gin.H](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
