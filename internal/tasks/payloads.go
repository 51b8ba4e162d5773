package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeParse = "resume:parse"
)

// QueueResumes 是简历解析任务所在的队列。
const QueueResumes = "resumes"

// ResumeParsePayload 描述解析一份简历所需的最小信息。
type ResumeParsePayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeParseTask 构造一个新的简历解析任务。
func NewResumeParseTask(resumeID uint, correlationID string, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeParsePayload{
		ResumeID:      resumeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal resume parse payload: %w", err)
	}
	opts = append([]asynq.Option{asynq.Queue(QueueResumes)}, opts...)
	return asynq.NewTask(TypeResumeParse, payload, opts...), nil
}

// ParseResumeParsePayload 解码任务负载。
func ParseResumeParsePayload(t *asynq.Task) (ResumeParsePayload, error) {
	var payload ResumeParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("unmarshal resume parse payload: %w", err)
	}
	if payload.ResumeID == 0 {
		return payload, fmt.Errorf("resume parse payload missing resume id")
	}
	return payload, nil
}
