package stays

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("stay not found")
	ErrNotActive    = errors.New("stay is not active")
	ErrInvalidDates = errors.New("check-out must be after check-in")
	ErrInvalidRefs  = errors.New("client or room does not exist")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Stay struct {
	ID        int64      `json:"id"`
	Reference string     `json:"reference"`
	ClientID  int64      `json:"client_id"`
	RoomID    int64      `json:"room_id"`
	CheckIn   time.Time  `json:"check_in"`
	CheckOut  *time.Time `json:"check_out,omitempty"`
	Status    Status     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreateStayRequest struct {
	ClientID int64      `json:"client_id" validate:"required,gt=0"`
	RoomID   int64      `json:"room_id" validate:"required,gt=0"`
	CheckIn  time.Time  `json:"check_in" validate:"required"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Notes    string     `json:"notes" validate:"max=1000"`
}

type UpdateStayRequest struct {
	CheckIn  *time.Time `json:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Notes    *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ListFilters struct {
	ClientID *int64
	RoomID   *int64
	Status   *Status
}

func checkDates(in time.Time, out *time.Time) error {
	if out != nil && !out.After(in) {
		return ErrInvalidDates
	}
	return nil
}
