package clients

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("client not found")
	ErrHasStays = errors.New("client has recorded stays")
)

type Client struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DocumentID  string    `json:"document_id"`
	Nationality string    `json:"nationality"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpsertRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"omitempty,max=30"`
	DocumentID  string `json:"document_id" validate:"required,max=40"`
	Nationality string `json:"nationality" validate:"omitempty,iso3166_1_alpha2"`
}
