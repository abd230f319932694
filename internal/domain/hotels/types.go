package hotels

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("hotel not found")
	ErrHasRooms = errors.New("hotel still has rooms")
)

type Hotel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Stars     int       `json:"stars"`
	Photos    []string  `json:"photos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateHotelRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=80"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Stars   int    `json:"stars" validate:"gte=0,lte=5"`
}

type UpdateHotelRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=80"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Stars   *int    `json:"stars,omitempty" validate:"omitempty,gte=0,lte=5"`
}
