package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueAudit is the queue audit tasks are enqueued on.
	QueueAudit = "audit"
	// TaskTypeRecord persists one audit event.
	TaskTypeRecord = "audit:record"
)

// NewRecordTask wraps ev in an asynq task.
func NewRecordTask(ev Event) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecord, data), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueRecorder hands events to the worker through Redis. Record returns once
// the task is durably enqueued.
type QueueRecorder struct {
	client enqueuer
	now    func() time.Time
}

func NewQueueRecorder(client *asynq.Client) *QueueRecorder {
	return &QueueRecorder{client: client, now: time.Now}
}

func (q *QueueRecorder) Record(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = q.now()
	}
	task, err := NewRecordTask(ev)
	if err != nil {
		return fmt.Errorf("build audit task: %w", err)
	}
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueAudit),
		asynq.MaxRetry(10),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue audit task: %w", err)
	}
	return nil
}

// HandleRecordTask returns the worker handler that stores events with rec.
func HandleRecordTask(rec Recorder) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var ev Event
		if err := json.Unmarshal(t.Payload(), &ev); err != nil {
			return fmt.Errorf("decode audit payload: %v: %w", err, asynq.SkipRetry)
		}
		return rec.Record(ctx, ev)
	}
}
