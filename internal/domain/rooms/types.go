package rooms

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrDuplicate     = errors.New("room number already exists in this hotel")
	ErrNotAvailable  = errors.New("room is not available")
	ErrInvalidRefs   = errors.New("hotel or room category does not exist")
	ErrHasStays      = errors.New("room has recorded stays")
	ErrInvalidStatus = errors.New("invalid room status")
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

type Room struct {
	ID         int64     `json:"id"`
	HotelID    int64     `json:"hotel_id"`
	CategoryID int64     `json:"category_id"`
	Number     string    `json:"number"`
	Floor      int       `json:"floor"`
	Status     Status    `json:"status"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateRoomRequest struct {
	HotelID    int64  `json:"hotel_id" validate:"required,gt=0"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Number     string `json:"number" validate:"required,max=10"`
	Floor      int    `json:"floor" validate:"gte=-5,lte=200"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
}

type UpdateRoomRequest struct {
	CategoryID *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Number     *string `json:"number,omitempty" validate:"omitempty,max=10"`
	Floor      *int    `json:"floor,omitempty" validate:"omitempty,gte=-5,lte=200"`
	Status     *Status `json:"status,omitempty" validate:"omitempty,oneof=available occupied maintenance"`
	PriceCents *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
}

type ListFilters struct {
	HotelID *int64
	Status  *Status
}
