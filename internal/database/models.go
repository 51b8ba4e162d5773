package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role 表示账号角色。
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleRecruiter, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether r may read other users' records.
func (r Role) Elevated() bool {
	return r == RoleRecruiter || r == RoleAdmin
}

// ParsingStatus 表示简历解析流程所处的阶段。
type ParsingStatus string

const (
	ParsingPending    ParsingStatus = "pending"
	ParsingProcessing ParsingStatus = "processing"
	ParsingCompleted  ParsingStatus = "completed"
	ParsingFailed     ParsingStatus = "failed"
)

// TestType 区分选择题与编程题测试。
type TestType string

const (
	TestTypeMCQ    TestType = "mcq"
	TestTypeCoding TestType = "coding"
)

// AttemptStatus 表示一次测试作答的状态。
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// InterviewStatus 表示面试会话的状态。
// in_progress 与 cancelled 目前没有对应的状态迁移。
type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "scheduled"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewCancelled  InterviewStatus = "cancelled"
)

// ApplicationStatus 表示职位申请的处理进度。
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationHired       ApplicationStatus = "hired"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email              string `gorm:"uniqueIndex;size:255"`
	PasswordHash       string `gorm:"size:255"`
	FullName           string `gorm:"size:255"`
	Role               Role   `gorm:"size:16;default:candidate;index"`
	IsActive           bool   `gorm:"default:true"`
	MustChangePassword bool   `gorm:"default:false"`
	AvatarURL          string `gorm:"size:512"`
	LinkedInURL        string `gorm:"size:512"`
}

// Resume 表示用户上传的简历文件及其解析状态。
type Resume struct {
	gorm.Model
	UserID        uint            `gorm:"index"`
	User          User            `gorm:"constraint:OnDelete:CASCADE"`
	FileName      string          `gorm:"size:255"`
	ObjectKey     string          `gorm:"size:512"`
	ParsingStatus ParsingStatus   `gorm:"size:16;index"`
	Analysis      *ResumeAnalysis `gorm:"constraint:OnDelete:CASCADE"`
}

// ExperienceEntry 是简历中的一段工作经历。
type ExperienceEntry struct {
	Company string  `json:"company"`
	Role    string  `json:"role"`
	Years   float64 `json:"years"`
}

// ProjectEntry 是简历中的一个项目。
type ProjectEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
}

// ResumeAnalysis 是一次完成的解析结果，创建后不再修改。
type ResumeAnalysis struct {
	gorm.Model
	ResumeID         uint                                `gorm:"uniqueIndex"`
	Skills           datatypes.JSONSlice[string]          `gorm:"type:jsonb"`
	Experience       datatypes.JSONSlice[ExperienceEntry] `gorm:"type:jsonb"`
	Projects         datatypes.JSONSlice[ProjectEntry]    `gorm:"type:jsonb"`
	CredibilityScore *float64
}

// Question 是测试中的一道题目。
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	CodeTemplate  string   `json:"codeTemplate,omitempty"`
	Language      string   `json:"language,omitempty"`
}

// SkillTest 表示一套技能测试；UserID 为空时为全局共享测试。
type SkillTest struct {
	gorm.Model
	Title           string                        `gorm:"size:255"`
	SkillTags       datatypes.JSONSlice[string]   `gorm:"type:jsonb"`
	Type            TestType                      `gorm:"size:16;default:mcq"`
	Questions       datatypes.JSONSlice[Question] `gorm:"type:jsonb"`
	DurationMinutes int
	IsActive        bool  `gorm:"default:true;index"`
	UserID          *uint `gorm:"index"`
}

// SkillTestAttempt 表示用户对某套测试的一次作答。
type SkillTestAttempt struct {
	gorm.Model
	SkillTestID  uint                               `gorm:"index"`
	SkillTest    SkillTest                          `gorm:"constraint:OnDelete:CASCADE"`
	UserID       uint                               `gorm:"index"`
	Status       AttemptStatus                      `gorm:"size:16"`
	Answers      datatypes.JSONType[map[int]string] `gorm:"type:jsonb"`
	Score        int
	CorrectCount int
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// InterviewResponse 是候选人对某个问题的回答及评分。
type InterviewResponse struct {
	Transcript     string `json:"transcript"`
	RelevanceScore int    `json:"relevanceScore"`
	SentimentScore int    `json:"sentimentScore"`
}

// Interview 表示一次面试会话。Responses 以题目序号为键，缺失即未作答。
type Interview struct {
	gorm.Model
	CandidateID  uint                                          `gorm:"index"`
	Candidate    User                                          `gorm:"constraint:OnDelete:CASCADE"`
	JobID        *uint                                         `gorm:"index"`
	Status       InterviewStatus                               `gorm:"size:16"`
	Questions    datatypes.JSONSlice[string]                   `gorm:"type:jsonb"`
	Responses    datatypes.JSONType[map[int]InterviewResponse] `gorm:"type:jsonb"`
	OverallScore *int
	ScheduledAt  time.Time
	CompletedAt  *time.Time
	VideoURL     string `gorm:"size:512"`
}

// Job 表示招聘者发布的职位。
type Job struct {
	gorm.Model
	Title              string                      `gorm:"size:255"`
	Description        string                      `gorm:"type:text"`
	RequiredSkills     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Location           string                      `gorm:"size:255"`
	Type               string                      `gorm:"size:32"`
	MinExperienceYears int
	IsActive           bool `gorm:"default:true;index"`
	PostedByID         uint `gorm:"index"`
	PostedBy           User `gorm:"constraint:OnDelete:CASCADE"`
}

// JobApplication 表示候选人对职位的一次申请。
type JobApplication struct {
	gorm.Model
	JobID       uint              `gorm:"uniqueIndex:idx_job_candidate"`
	Job         Job               `gorm:"constraint:OnDelete:CASCADE"`
	CandidateID uint              `gorm:"uniqueIndex:idx_job_candidate"`
	Candidate   User              `gorm:"constraint:OnDelete:CASCADE"`
	Status      ApplicationStatus `gorm:"size:16"`
	MatchScore  *int
}

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Resume{},
		&ResumeAnalysis{},
		&SkillTest{},
		&SkillTestAttempt{},
		&Job{},
		&JobApplication{},
		&Interview{},
	}
}
