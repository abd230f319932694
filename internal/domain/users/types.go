package users

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hotelier/internal/authz"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrInvalidToken      = errors.New("invalid or expired token")
	QueryTimeoutDuration = time.Second * 5
)

// Invitation kinds stored in user_invitations.
const (
	InvitationVerifyEmail = "verify_email"
	InvitationStaff       = "staff_invite"
)

type User struct {
	ID                   int64        `json:"id"`
	FirstName            string       `json:"first_name"`
	LastName             string       `json:"last_name"`
	Email                string       `json:"email"`
	Phone                string       `json:"phone"`
	Password             password     `json:"-"`
	Role                 authz.Role   `json:"role"`
	Permissions          []authz.Code `json:"permissions"`
	IsBlocked            bool         `json:"is_blocked"`
	EmailVerified        bool         `json:"email_verified"`
	ProfileCompleted     bool         `json:"profile_completed"`
	RefreshToken         string       `json:"-"`
	ResetPasswordToken   string       `json:"-"`
	ResetPasswordExpires time.Time    `json:"-"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Identity returns the authorization view of the user.
func (u *User) Identity() *authz.Identity {
	perms := make([]authz.Code, len(u.Permissions))
	copy(perms, u.Permissions)
	return &authz.Identity{
		ID:               u.ID,
		Role:             u.Role,
		Permissions:      perms,
		Blocked:          u.IsBlocked,
		EmailVerified:    u.EmailVerified,
		ProfileCompleted: u.ProfileCompleted,
	}
}

type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// ListFilters narrows the admin user list.
type ListFilters struct {
	Search  string
	Role    string
	Blocked *bool
}

// ProfileUpdate is the data collected by the profile completion step.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
}

// UserUpdate is a partial update made by staff with the users update permission.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Role      *authz.Role
}

func toCodes(raw []int32) []authz.Code {
	out := make([]authz.Code, len(raw))
	for i, c := range raw {
		out[i] = authz.Code(c)
	}
	return out
}

func fromCodes(codes []authz.Code) []int32 {
	out := make([]int32, len(codes))
	for i, c := range codes {
		out[i] = int32(c)
	}
	return out
}
