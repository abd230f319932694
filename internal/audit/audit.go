package audit

import (
	"context"
	"time"
)

const (
	ActionAccessDenied = "access_denied"
	TypeSecurity       = "security"
)

// Details is the free-form part of a security event.
type Details struct {
	Method   string   `json:"method"`
	Route    string   `json:"route"`
	Required []int    `json:"required,omitempty"`
	Missing  []int    `json:"missing,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Event is one audit record. ActorID is nil when no identity was resolved.
type Event struct {
	Action     string    `json:"action"`
	Type       string    `json:"type"`
	ActorID    *int64    `json:"actor"`
	Details    Details   `json:"details"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Entry is a persisted Event.
type Entry struct {
	ID int64 `json:"id"`
	Event
}

// Recorder accepts security events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, ev Event) error

func (f RecorderFunc) Record(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
