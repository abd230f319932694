package roomcategories

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("room category not found")
	ErrDuplicate = errors.New("a room category with that name already exists")
	ErrInUse     = errors.New("room category is still assigned to rooms")
)

type Category struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	BasePriceCents int64     `json:"base_price_cents"`
	Capacity       int       `json:"capacity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UpsertRequest struct {
	Name           string `json:"name" validate:"required,max=80"`
	Description    string `json:"description" validate:"max=500"`
	BasePriceCents int64  `json:"base_price_cents" validate:"gte=0"`
	Capacity       int    `json:"capacity" validate:"required,gte=1,lte=20"`
}
