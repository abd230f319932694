package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelier/internal/db"
)

// Store persists events into audit_logs.
type Store struct {
	db db.DBTX
}

func NewStore(db db.DBTX) *Store {
	return &Store{db: db}
}

// Record inserts ev. It satisfies Recorder so the API can write directly
// when no queue is configured.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if s == nil {
		return errors.New("audit store not initialised")
	}
	if ev.Action == "" || ev.Type == "" {
		return errors.New("audit event requires action and type")
	}
	details, err := json.Marshal(ev.Details)
	if err != nil {
		return err
	}
	var at *time.Time
	if !ev.OccurredAt.IsZero() {
		at = &ev.OccurredAt
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO audit_logs (action, type, actor_id, details, occurred_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
		ev.Action, ev.Type, ev.ActorID, details, at)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListFilters narrows List.
type ListFilters struct {
	ActorID *int64
	Action  string
}

// List returns entries newest first with the total count.
func (s *Store) List(ctx context.Context, f ListFilters, limit, offset int) ([]Entry, int, error) {
	query := `
		SELECT id, action, type, actor_id, details, occurred_at, COUNT(*) OVER()
		FROM audit_logs
		WHERE ($1::bigint IS NULL OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := s.db.Query(ctx, query, f.ActorID, f.Action, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var (
		out   []Entry
		total int
	)
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Type, &e.ActorID, &raw, &e.OccurredAt, &total); err != nil {
			return nil, 0, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return nil, 0, fmt.Errorf("decode audit details %d: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
