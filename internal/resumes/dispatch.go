package resumes

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/tasks"
)

// AsynqDispatcher enqueues resume:parse tasks.
type AsynqDispatcher struct {
	client   *asynq.Client
	maxRetry int
}

// NewAsynqDispatcher returns a Dispatcher backed by client.
func NewAsynqDispatcher(client *asynq.Client, maxRetry int) *AsynqDispatcher {
	return &AsynqDispatcher{client: client, maxRetry: maxRetry}
}

// DispatchParse enqueues a parse task. The task ID is derived from the resume
// so one resume is never queued twice at the same time.
func (d *AsynqDispatcher) DispatchParse(ctx context.Context, resumeID uint, correlationID string) error {
	task, err := tasks.NewResumeParseTask(resumeID, correlationID,
		asynq.MaxRetry(d.maxRetry),
		asynq.TaskID(fmt.Sprintf("resume:%d", resumeID)),
	)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", tasks.TypeResumeParse, err)
	}
	return nil
}
