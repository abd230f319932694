package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: QueueAudit}, nil
}

func TestQueueRecorderEnqueuesEvent(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	enq := &fakeEnqueuer{}
	rec := &QueueRecorder{client: enq, now: func() time.Time { return fixed }}

	actor := int64(17)
	err := rec.Record(context.Background(), Event{
		Action:  ActionAccessDenied,
		Type:    TypeSecurity,
		ActorID: &actor,
		Details: Details{Method: "DELETE", Route: "/v1/clients/{clientID}", Required: []int{2004}, Missing: []int{2004}},
	})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeRecord, enq.tasks[0].Type())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &raw))
	assert.Equal(t, float64(17), raw["actor"])
	assert.Equal(t, "security", raw["type"])

	var got Event
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &got))
	assert.Equal(t, fixed, got.OccurredAt)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, int64(17), *got.ActorID)
	assert.Equal(t, []int{2004}, got.Details.Missing)
}

func TestQueueRecorderPropagatesEnqueueError(t *testing.T) {
	rec := &QueueRecorder{client: &fakeEnqueuer{err: errors.New("redis down")}, now: time.Now}
	err := rec.Record(context.Background(), Event{Action: ActionAccessDenied, Type: TypeSecurity})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestHandleRecordTask(t *testing.T) {
	var got []Event
	handler := HandleRecordTask(RecorderFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	}))

	task, err := NewRecordTask(Event{Action: ActionAccessDenied, Type: TypeSecurity, Details: Details{Reason: "not authenticated"}})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ActorID)
	assert.Equal(t, "not authenticated", got[0].Details.Reason)
}

func TestHandleRecordTaskSkipsRetryOnBadPayload(t *testing.T) {
	handler := HandleRecordTask(RecorderFunc(func(context.Context, Event) error {
		t.Fatal("recorder must not be called")
		return nil
	}))
	err := handler(context.Background(), asynq.NewTask(TaskTypeRecord, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecordTaskRetriesStoreFailure(t *testing.T) {
	boom := errors.New("db unavailable")
	handler := HandleRecordTask(RecorderFunc(func(context.Context, Event) error { return boom }))
	task, err := NewRecordTask(Event{Action: ActionAccessDenied, Type: TypeSecurity})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
