package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeParseTaskRoundTrip(t *testing.T) {
	task, err := NewResumeParseTask(42, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, TypeResumeParse, task.Type())

	payload, err := ParseResumeParsePayload(task)
	require.NoError(t, err)
	assert.Equal(t, ResumeParsePayload{ResumeID: 42, CorrelationID: "corr-1"}, payload)
}

func TestParseResumeParsePayloadRejectsGarbage(t *testing.T) {
	_, err := ParseResumeParsePayload(asynq.NewTask(TypeResumeParse, []byte("{")))
	assert.Error(t, err)

	_, err = ParseResumeParsePayload(asynq.NewTask(TypeResumeParse, []byte(`{"correlation_id":"x"}`)))
	assert.Error(t, err)
}
