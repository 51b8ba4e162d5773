package interviews

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/apperr"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database/dbtest"
)

// fixedGenerator scores every answer by transcript length.
type fixedGenerator struct {
	roles   []string
	onScore func()
}

func (g *fixedGenerator) GenerateInterviewQuestions(_ context.Context, role, _ string) []string {
	g.roles = append(g.roles, role)
	return []string{"q1 " + role, "q2", "q3", "q4", "q5"}
}

func (g *fixedGenerator) ScoreResponse(_ context.Context, _ string, transcript string) ai.ResponseScore {
	if g.onScore != nil {
		g.onScore()
	}
	return ai.ResponseScore{Relevance: len(transcript), Sentiment: 80}
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fixedGenerator) {
	t.Helper()
	db := dbtest.Open(t)
	gen := &fixedGenerator{}
	return NewService(db, gen, nil), db, gen
}

func TestScheduleWithoutJobUsesDefaultQuestions(t *testing.T) {
	svc, db, _ := newTestService(t)
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)

	interview, err := svc.Schedule(context.Background(), candidate.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, database.InterviewScheduled, interview.Status)
	assert.Equal(t, DefaultQuestions, []string(interview.Questions))
	assert.False(t, interview.ScheduledAt.IsZero())
	assert.Nil(t, interview.OverallScore)
}

func TestScheduleWithJobGeneratesQuestions(t *testing.T) {
	svc, db, gen := newTestService(t)
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	recruiter := dbtest.CreateUser(t, db, "r@example.com", database.RoleRecruiter)
	job := database.Job{Title: "Backend Engineer", Description: "Go services", PostedByID: recruiter.ID, IsActive: true}
	require.NoError(t, db.Create(&job).Error)

	interview, err := svc.Schedule(context.Background(), candidate.ID, &job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend Engineer"}, gen.roles)
	assert.Equal(t, "q1 Backend Engineer", interview.Questions[0])
	require.NotNil(t, interview.JobID)
	assert.Equal(t, job.ID, *interview.JobID)
}

func TestScheduleWithUnknownJob(t *testing.T) {
	svc, db, _ := newTestService(t)
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	missing := uint(77)

	_, err := svc.Schedule(context.Background(), candidate.ID, &missing)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, "Job not found", apperr.Message(err, ""))
}

func TestSubmitResponseOverwritesSlot(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, candidate.ID, nil)
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, interview.ID, candidate.ID, 1, "short")
	require.NoError(t, err)
	updated, err := svc.SubmitResponse(ctx, interview.ID, candidate.ID, 1, "a much longer answer")
	require.NoError(t, err)

	responses := updated.Responses.Data()
	require.Len(t, responses, 1)
	assert.Equal(t, "a much longer answer", responses[1].Transcript)
	assert.Equal(t, len("a much longer answer"), responses[1].RelevanceScore)

	var stored database.Interview
	require.NoError(t, db.First(&stored, interview.ID).Error)
	assert.Equal(t, responses, stored.Responses.Data())
}

func TestSubmitResponseScoresOutsideTransaction(t *testing.T) {
	svc, db, gen := newTestService(t)
	ctx := context.Background()
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, candidate.ID, nil)
	require.NoError(t, err)

	// 评分期间另一个请求写入了 0 号槽位；此时不应有事务占用数据库。
	gen.onScore = func() {
		gen.onScore = nil
		written := datatypes.NewJSONType(map[int]database.InterviewResponse{
			0: {Transcript: "earlier", RelevanceScore: 7, SentimentScore: 80},
		})
		require.NoError(t, db.Model(&database.Interview{}).Where("id = ?", interview.ID).Update("responses", written).Error)
	}

	updated, err := svc.SubmitResponse(ctx, interview.ID, candidate.ID, 1, "later")
	require.NoError(t, err)
	responses := updated.Responses.Data()
	require.Len(t, responses, 2)
	assert.Equal(t, "earlier", responses[0].Transcript)
	assert.Equal(t, "later", responses[1].Transcript)

	var stored database.Interview
	require.NoError(t, db.First(&stored, interview.ID).Error)
	assert.Len(t, stored.Responses.Data(), 2)
}

func TestSubmitResponseOutOfRangeIndexIsStored(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, candidate.ID, nil)
	require.NoError(t, err)

	updated, err := svc.SubmitResponse(ctx, interview.ID, candidate.ID, 9, "extra")
	require.NoError(t, err)
	assert.Contains(t, updated.Responses.Data(), 9)

	_, err = svc.SubmitResponse(ctx, interview.ID, candidate.ID, -1, "bad")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSubmitResponseRejectsOtherCandidate(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, db, "o@example.com", database.RoleCandidate)
	other := dbtest.CreateUser(t, db, "x@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, owner.ID, nil)
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, interview.ID, other.ID, 0, "hi")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svc.SubmitResponse(ctx, interview.ID+1, owner.ID, 0, "hi")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCompleteAveragesRelevance(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, candidate.ID, nil)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(ctx, interview.ID, candidate.ID, 0, "1234567890")
	require.NoError(t, err)
	_, err = svc.SubmitResponse(ctx, interview.ID, candidate.ID, 1, "12345")
	require.NoError(t, err)

	done, err := svc.Complete(ctx, interview.ID, candidate.ID, "interviews/1/video.webm")
	require.NoError(t, err)
	assert.Equal(t, database.InterviewCompleted, done.Status)
	require.NotNil(t, done.OverallScore)
	assert.Equal(t, 8, *done.OverallScore)
	require.NotNil(t, done.CompletedAt)

	var stored database.Interview
	require.NoError(t, db.First(&stored, interview.ID).Error)
	assert.Equal(t, database.InterviewCompleted, stored.Status)
	require.NotNil(t, stored.OverallScore)
	assert.Equal(t, 8, *stored.OverallScore)
	assert.Equal(t, "interviews/1/video.webm", stored.VideoURL)
}

func TestCompleteWithoutResponsesScoresZero(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview, err := svc.Schedule(ctx, candidate.ID, nil)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, interview.ID, candidate.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, *done.OverallScore)
	assert.Empty(t, done.VideoURL)
}

func TestGetAllowsOwnerAndElevatedRoles(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, db, "o@example.com", database.RoleCandidate)
	other := dbtest.CreateUser(t, db, "x@example.com", database.RoleCandidate)
	recruiter := dbtest.CreateUser(t, db, "r@example.com", database.RoleRecruiter)
	interview, err := svc.Schedule(ctx, owner.ID, nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, interview.ID, owner.ID, database.RoleCandidate)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, interview.ID, recruiter.ID, database.RoleRecruiter)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, interview.ID, other.ID, database.RoleCandidate)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.Get(ctx, interview.ID+5, owner.ID, database.RoleAdmin)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListMineAndListAll(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	a := dbtest.CreateUser(t, db, "a@example.com", database.RoleCandidate)
	b := dbtest.CreateUser(t, db, "b@example.com", database.RoleCandidate)
	first, err := svc.Schedule(ctx, a.ID, nil)
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, b.ID, nil)
	require.NoError(t, err)
	second, err := svc.Schedule(ctx, a.ID, nil)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a@example.com", all[0].Candidate.Email)
}

func TestOverallScoreRounds(t *testing.T) {
	assert.Equal(t, 0, OverallScore(nil))
	assert.Equal(t, 51, OverallScore(map[int]database.InterviewResponse{
		0: {RelevanceScore: 50},
		3: {RelevanceScore: 51},
		4: {RelevanceScore: 51},
	}))
}

func TestInterviewResponsesRoundTripThroughJSONColumn(t *testing.T) {
	db := dbtest.Open(t)
	candidate := dbtest.CreateUser(t, db, "c@example.com", database.RoleCandidate)
	interview := database.Interview{
		CandidateID: candidate.ID,
		Status:      database.InterviewScheduled,
		Responses: datatypes.NewJSONType(map[int]database.InterviewResponse{
			2: {Transcript: "t", RelevanceScore: 10, SentimentScore: 90},
		}),
	}
	require.NoError(t, db.Create(&interview).Error)

	var stored database.Interview
	require.NoError(t, db.First(&stored, interview.ID).Error)
	assert.Equal(t, 90, stored.Responses.Data()[2].SentimentScore)
}
