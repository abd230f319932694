package users

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hotelier/internal/authz"
	"hotelier/internal/db"
)

type Store interface {
	GetByID(context.Context, int64) (*User, error)
	GetByEmail(context.Context, string) (*User, error)
	IdentityByID(ctx context.Context, userID int64) (*authz.Identity, bool, error)
	CreateAndInvite(ctx context.Context, user *User, tokenHash, kind string, exp time.Duration) error
	CreateInvitation(ctx context.Context, userID int64, tokenHash, kind string, exp time.Duration) error
	VerifyEmail(ctx context.Context, tokenHash string) (*User, error)
	AcceptInvitation(ctx context.Context, tokenHash string, user *User) (*User, error)
	Delete(context.Context, int64) error
	CompleteProfile(ctx context.Context, userID int64, in ProfileUpdate) (*User, error)
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	UpdateResetToken(ctx context.Context, email, tokenHash string, expires time.Time) error
	ResetPassword(ctx context.Context, tokenHash string, user *User) error
	UpdatePermissions(ctx context.Context, userID int64, codes []authz.Code) (*User, error)
	Update(ctx context.Context, userID int64, in UserUpdate) (*User, error)
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]User, int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// HashToken returns the hex sha256 of a one-time token; only hashes are stored.
func HashToken(plain string) string {
	hash := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(hash[:])
}

const userColumns = `
	id, first_name, last_name, email, phone, password, role, permissions,
	is_blocked, email_verified, profile_completed, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u     User
		role  string
		perms []int32
	)
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.Password.hash,
		&role,
		&perms,
		&u.IsBlocked,
		&u.EmailVerified,
		&u.ProfileCompleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r, err := authz.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = r
	u.Permissions = toCodes(perms)
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, query, userID))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, query, email))
}

// IdentityByID satisfies auth.IdentityLookup.
func (r *Repository) IdentityByID(ctx context.Context, userID int64) (*authz.Identity, bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return user.Identity(), true, nil
}

func (r *Repository) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
	  INSERT INTO users (first_name, last_name, email, phone, password, role, permissions, email_verified, profile_completed)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := tx.QueryRow(
		ctx, query,
		user.FirstName, user.LastName, user.Email, user.Phone, user.Password.hash,
		string(user.Role), fromCodes(user.Permissions), user.EmailVerified, user.ProfileCompleted,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *Repository) CreateAndInvite(ctx context.Context, user *User, tokenHash, kind string, exp time.Duration) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := r.create(ctx, tx, user); err != nil {
			return err
		}
		return r.createInvitation(ctx, tx, user.ID, tokenHash, kind, exp)
	})
}

func (r *Repository) CreateInvitation(ctx context.Context, userID int64, tokenHash, kind string, exp time.Duration) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1 AND kind = $2`, userID, kind); err != nil {
			return err
		}
		return r.createInvitation(ctx, tx, userID, tokenHash, kind, exp)
	})
}

func (r *Repository) createInvitation(ctx context.Context, tx pgx.Tx, userID int64, tokenHash, kind string, exp time.Duration) error {
	query := `INSERT INTO user_invitations (token, user_id, kind, expiry) VALUES ($1, $2, $3, $4)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := tx.Exec(ctx, query, tokenHash, userID, kind, time.Now().Add(exp))
	return err
}

func (r *Repository) userFromInvitation(ctx context.Context, tx pgx.Tx, tokenHash, kind string) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE id = (
			SELECT user_id FROM user_invitations
			WHERE token = $1 AND kind = $2 AND expiry > $3
		)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user, err := scanUser(tx.QueryRow(ctx, query, tokenHash, kind, time.Now()))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

// VerifyEmail is idempotent: an already verified user succeeds.
func (r *Repository) VerifyEmail(ctx context.Context, tokenHash string) (*User, error) {
	var user *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := r.userFromInvitation(ctx, tx, tokenHash, InvitationVerifyEmail)
		if err != nil {
			return err
		}
		if !u.EmailVerified {
			if _, err := tx.Exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, u.ID); err != nil {
				return err
			}
			u.EmailVerified = true
		}
		user = u
		return nil
	})
	return user, err
}

// AcceptInvitation sets the invited user's password, verifies the email and
// consumes every staff invitation of that user.
func (r *Repository) AcceptInvitation(ctx context.Context, tokenHash string, in *User) (*User, error) {
	var user *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := r.userFromInvitation(ctx, tx, tokenHash, InvitationStaff)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE users SET password = $1, email_verified = TRUE, updated_at = NOW()
			WHERE id = $2`, in.Password.hash, u.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1 AND kind = $2`, u.ID, InvitationStaff); err != nil {
			return err
		}
		u.EmailVerified = true
		user = u
		return nil
	})
	return user, err
}

func (r *Repository) Delete(ctx context.Context, userID int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) CompleteProfile(ctx context.Context, userID int64, in ProfileUpdate) (*User, error) {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, profile_completed = TRUE, updated_at = NOW()
		WHERE id = $4
		RETURNING` + userColumns

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, query, in.FirstName, in.LastName, in.Phone, userID))
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	query := `UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var refreshToken *string

	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve refresh token: %w", err)
	}
	if refreshToken == nil {
		return "", ErrNotFound
	}
	return *refreshToken, nil
}

func (r *Repository) UpdateResetToken(ctx context.Context, email, tokenHash string, expires time.Time) error {
	query := `
        UPDATE users
        SET reset_password_token = $1, reset_password_expires = $2
        WHERE lower(email) = lower($3)
    `
	tag, err := r.db.Exec(ctx, query, tokenHash, expires, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword stores the new password of the user owning an unexpired
// reset token and clears the token.
func (r *Repository) ResetPassword(ctx context.Context, tokenHash string, in *User) error {
	query := `
        UPDATE users
        SET password = $1, reset_password_token = NULL, reset_password_expires = NULL,
            refresh_token = NULL, updated_at = NOW()
        WHERE reset_password_token = $2 AND reset_password_expires > $3
    `
	tag, err := r.db.Exec(ctx, query, in.Password.hash, tokenHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// UpdatePermissions replaces the stored permission set. Last writer wins.
func (r *Repository) UpdatePermissions(ctx context.Context, userID int64, codes []authz.Code) (*User, error) {
	query := `UPDATE users SET permissions = $1, updated_at = NOW() WHERE id = $2 RETURNING` + userColumns

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, query, fromCodes(codes), userID))
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, userID int64, in UserUpdate) (*User, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.FirstName != nil {
		add("first_name", *in.FirstName)
	}
	if in.LastName != nil {
		add("last_name", *in.LastName)
	}
	if in.Phone != nil {
		add("phone", *in.Phone)
	}
	if in.Role != nil {
		add("role", string(*in.Role))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, userID)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING%s`, strings.Join(sets, ", "), len(args), userColumns)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *Repository) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	query := `UPDATE users SET is_blocked = $1, refresh_token = NULL, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, blocked, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]User, int, error) {
	where := []string{"1=1"}
	args := []any{}

	if s := strings.TrimSpace(filters.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", len(args), len(args), len(args)))
	}
	if filters.Role != "" {
		args = append(args, filters.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.Blocked != nil {
		args = append(args, *filters.Blocked)
		where = append(where, fmt.Sprintf("is_blocked = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT%s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
