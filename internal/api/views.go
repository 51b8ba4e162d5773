package api

import (
	"context"
	"time"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// 对外 JSON 视图，字段名与前端保持一致（camelCase）。

type userView struct {
	ID                 uint          `json:"id"`
	Email              string        `json:"email"`
	FullName           string        `json:"fullName"`
	Role               database.Role `json:"role"`
	IsActive           bool          `json:"isActive"`
	MustChangePassword bool          `json:"mustChangePassword"`
	AvatarURL          string        `json:"avatarUrl,omitempty"`
	LinkedInURL        string        `json:"linkedInUrl,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
}

func newUserView(u database.User) userView {
	return userView{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		AvatarURL:          u.AvatarURL,
		LinkedInURL:        u.LinkedInURL,
		CreatedAt:          u.CreatedAt,
	}
}

type analysisView struct {
	Skills           []string                   `json:"skills"`
	Experience       []database.ExperienceEntry `json:"experience"`
	Projects         []database.ProjectEntry    `json:"projects"`
	CredibilityScore *float64                   `json:"credibilityScore"`
}

type resumeView struct {
	ID            uint                   `json:"id"`
	UserID        uint                   `json:"userId"`
	FileName      string                 `json:"fileName"`
	ParsingStatus database.ParsingStatus `json:"parsingStatus"`
	Analysis      *analysisView          `json:"analysis"`
	CreatedAt     time.Time              `json:"createdAt"`
}

func newResumeView(r database.Resume) resumeView {
	view := resumeView{
		ID:            r.ID,
		UserID:        r.UserID,
		FileName:      r.FileName,
		ParsingStatus: r.ParsingStatus,
		CreatedAt:     r.CreatedAt,
	}
	if r.Analysis != nil {
		view.Analysis = &analysisView{
			Skills:           r.Analysis.Skills,
			Experience:       r.Analysis.Experience,
			Projects:         r.Analysis.Projects,
			CredibilityScore: r.Analysis.CredibilityScore,
		}
	}
	return view
}

type questionView struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	CodeTemplate  string   `json:"codeTemplate,omitempty"`
	Language      string   `json:"language,omitempty"`
}

type skillTestView struct {
	ID              uint              `json:"id"`
	Title           string            `json:"title"`
	SkillTags       []string          `json:"skillTags"`
	Type            database.TestType `json:"type"`
	Questions       []questionView    `json:"questions"`
	DurationMinutes int               `json:"durationMinutes"`
	IsActive        bool              `json:"isActive"`
	UserID          *uint             `json:"userId"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// newSkillTestView 默认隐藏正确答案，仅 withAnswers 为 true 时输出。
func newSkillTestView(t database.SkillTest, withAnswers bool) skillTestView {
	questions := make([]questionView, 0, len(t.Questions))
	for _, q := range t.Questions {
		view := questionView{
			Question:     q.Question,
			Options:      q.Options,
			CodeTemplate: q.CodeTemplate,
			Language:     q.Language,
		}
		if withAnswers {
			view.CorrectAnswer = q.CorrectAnswer
		}
		questions = append(questions, view)
	}
	return skillTestView{
		ID:              t.ID,
		Title:           t.Title,
		SkillTags:       t.SkillTags,
		Type:            t.Type,
		Questions:       questions,
		DurationMinutes: t.DurationMinutes,
		IsActive:        t.IsActive,
		UserID:          t.UserID,
		CreatedAt:       t.CreatedAt,
	}
}

type attemptView struct {
	ID           uint                   `json:"id"`
	SkillTestID  uint                   `json:"skillTestId"`
	SkillTest    *skillTestView         `json:"skillTest,omitempty"`
	UserID       uint                   `json:"userId"`
	Status       database.AttemptStatus `json:"status"`
	Answers      map[int]string         `json:"answers"`
	Score        int                    `json:"score"`
	CorrectCount int                    `json:"correctCount"`
	StartedAt    time.Time              `json:"startedAt"`
	CompletedAt  *time.Time             `json:"completedAt"`
}

// newAttemptView 仅在作答完成后附带正确答案。
func newAttemptView(a database.SkillTestAttempt) attemptView {
	view := attemptView{
		ID:           a.ID,
		SkillTestID:  a.SkillTestID,
		UserID:       a.UserID,
		Status:       a.Status,
		Answers:      a.Answers.Data(),
		Score:        a.Score,
		CorrectCount: a.CorrectCount,
		StartedAt:    a.StartedAt,
		CompletedAt:  a.CompletedAt,
	}
	if a.SkillTest.ID != 0 {
		test := newSkillTestView(a.SkillTest, a.Status == database.AttemptCompleted)
		view.SkillTest = &test
	}
	return view
}

type interviewView struct {
	ID           uint                               `json:"id"`
	CandidateID  uint                               `json:"candidateId"`
	Candidate    *userView                          `json:"candidate,omitempty"`
	JobID        *uint                              `json:"jobId"`
	Status       database.InterviewStatus           `json:"status"`
	Questions    []string                           `json:"questions"`
	Responses    map[int]database.InterviewResponse `json:"responses"`
	OverallScore *int                               `json:"overallScore"`
	ScheduledAt  time.Time                          `json:"scheduledAt"`
	CompletedAt  *time.Time                         `json:"completedAt"`
	VideoURL     string                             `json:"videoUrl,omitempty"`
}

// videoPresignTTL 是面试视频预签名链接的有效期。
const videoPresignTTL = 30 * time.Minute

// newInterviewView 将存储中的视频对象键换成临时链接。
func newInterviewView(ctx context.Context, store ObjectStore, i database.Interview) interviewView {
	responses := i.Responses.Data()
	if responses == nil {
		responses = map[int]database.InterviewResponse{}
	}
	view := interviewView{
		ID:           i.ID,
		CandidateID:  i.CandidateID,
		JobID:        i.JobID,
		Status:       i.Status,
		Questions:    i.Questions,
		Responses:    responses,
		OverallScore: i.OverallScore,
		ScheduledAt:  i.ScheduledAt,
		CompletedAt:  i.CompletedAt,
		VideoURL:     i.VideoURL,
	}
	if i.Candidate.ID != 0 {
		candidate := newUserView(i.Candidate)
		view.Candidate = &candidate
	}
	if i.VideoURL != "" && !isExternalURL(i.VideoURL) && store != nil {
		if url, err := store.GeneratePresignedURL(ctx, i.VideoURL, videoPresignTTL); err == nil {
			view.VideoURL = url
		}
	}
	return view
}

type jobView struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	RequiredSkills     []string  `json:"requiredSkills"`
	Location           string    `json:"location"`
	Type               string    `json:"type"`
	MinExperienceYears int       `json:"minExperienceYears"`
	IsActive           bool      `json:"isActive"`
	PostedByID         uint      `json:"postedById"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newJobView(j database.Job) jobView {
	return jobView{
		ID:                 j.ID,
		Title:              j.Title,
		Description:        j.Description,
		RequiredSkills:     j.RequiredSkills,
		Location:           j.Location,
		Type:               j.Type,
		MinExperienceYears: j.MinExperienceYears,
		IsActive:           j.IsActive,
		PostedByID:         j.PostedByID,
		CreatedAt:          j.CreatedAt,
	}
}

type applicationView struct {
	ID          uint                       `json:"id"`
	JobID       uint                       `json:"jobId"`
	CandidateID uint                       `json:"candidateId"`
	Candidate   *userView                  `json:"candidate,omitempty"`
	Status      database.ApplicationStatus `json:"status"`
	MatchScore  *int                       `json:"matchScore"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

func newApplicationView(a database.JobApplication) applicationView {
	view := applicationView{
		ID:          a.ID,
		JobID:       a.JobID,
		CandidateID: a.CandidateID,
		Status:      a.Status,
		MatchScore:  a.MatchScore,
		CreatedAt:   a.CreatedAt,
	}
	if a.Candidate.ID != 0 {
		candidate := newUserView(a.Candidate)
		view.Candidate = &candidate
	}
	return view
}

// mapSlice 将 in 中每个元素转换为视图。
func mapSlice[T, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, item := range in {
		out = append(out, fn(item))
	}
	return out
}
