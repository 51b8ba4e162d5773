package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func TestSkillTestFlow(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.skills.EnsureSeedTest(context.Background()))
	_, token := s.userWithToken(t, "cand@example.com", database.RoleCandidate)

	rec := s.do(t, http.MethodGet, "/v1/skills/tests", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tests := decode[[]skillTestView](t, rec)
	require.Len(t, tests, 1)
	for _, q := range tests[0].Questions {
		assert.Empty(t, q.CorrectAnswer)
	}

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/skills/tests/%d/attempts", tests[0].ID), token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	attempt := decode[attemptView](t, rec)
	assert.Equal(t, database.AttemptInProgress, attempt.Status)
	require.NotNil(t, attempt.SkillTest)
	assert.Empty(t, attempt.SkillTest.Questions[0].CorrectAnswer)

	submitPath := fmt.Sprintf("/v1/skills/attempts/%d/submit", attempt.ID)
	rec = s.do(t, http.MethodPost, submitPath, token, gin.H{"answers": map[string]string{
		"0": "Representational State Transfer",
		"1": "POST",
		"2": "A framework",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	graded := decode[attemptView](t, rec)
	assert.Equal(t, database.AttemptCompleted, graded.Status)
	assert.Equal(t, 2, graded.CorrectCount)
	assert.Equal(t, 67, graded.Score)
	require.NotNil(t, graded.SkillTest)
	assert.Equal(t, "POST", graded.SkillTest.Questions[1].CorrectAnswer)

	rec = s.do(t, http.MethodPost, submitPath, token, gin.H{"answers": map[string]string{"0": "x"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Already submitted", decode[gin.H](t, rec)["error"])

	rec = s.do(t, http.MethodGet, "/v1/skills/attempts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]attemptView](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, 67, history[0].Score)
}

func TestSkillTestTagFilter(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.skills.EnsureSeedTest(context.Background()))
	_, token := s.userWithToken(t, "cand@example.com", database.RoleCandidate)

	rec := s.do(t, http.MethodGet, "/v1/skills/tests?tags=rust,%20haskell", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]skillTestView](t, rec))

	rec = s.do(t, http.MethodGet, "/v1/skills/tests?tags=node.js", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]skillTestView](t, rec), 1)
}

func TestPersonalTestVisibility(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.userWithToken(t, "owner@example.com", database.RoleCandidate)
	_, otherToken := s.userWithToken(t, "other@example.com", database.RoleCandidate)
	_, recruiterToken := s.userWithToken(t, "rec@example.com", database.RoleRecruiter)

	test, err := s.skills.BuildPersonalizedTest(context.Background(), owner.ID, []string{"Python"})
	require.NoError(t, err)
	path := fmt.Sprintf("/v1/skills/tests/%d", test.ID)

	rec := s.do(t, http.MethodGet, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[skillTestView](t, rec)
	assert.Len(t, view.Questions, len(test.Questions))
	assert.Empty(t, view.Questions[0].CorrectAnswer)

	rec = s.do(t, http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, path, recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[skillTestView](t, rec).Questions[0].CorrectAnswer)

	rec = s.do(t, http.MethodPost, path+"/attempts", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/skills/tests/4242", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
