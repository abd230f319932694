package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hotelier/internal/db"
)

type Store interface {
	List(ctx context.Context, search string, limit, offset int) ([]Client, int, error)
	GetByID(ctx context.Context, id int64) (*Client, error)
	Create(ctx context.Context, req UpsertRequest) (*Client, error)
	Update(ctx context.Context, id int64, req UpsertRequest) (*Client, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Store {
	return &Repository{db: db}
}

const columns = `id, first_name, last_name, email, phone, document_id, nationality, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.DocumentID, &c.Nationality, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List searches by name, email or document id.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Client, int, error) {
	cond := "TRUE"
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		cond = "(first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR document_id ILIKE $1)"
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`,
		columns, cond, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Client, error) {
	return scanClient(r.db.QueryRow(ctx, `SELECT `+columns+` FROM clients WHERE id = $1`, id))
}

func (r *Repository) Create(ctx context.Context, req UpsertRequest) (*Client, error) {
	query := `
		INSERT INTO clients (first_name, last_name, email, phone, document_id, nationality)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + columns
	return scanClient(r.db.QueryRow(ctx, query, req.FirstName, req.LastName, req.Email, req.Phone, req.DocumentID, req.Nationality))
}

func (r *Repository) Update(ctx context.Context, id int64, req UpsertRequest) (*Client, error) {
	query := `
		UPDATE clients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, document_id = $5, nationality = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + columns
	return scanClient(r.db.QueryRow(ctx, query, req.FirstName, req.LastName, req.Email, req.Phone, req.DocumentID, req.Nationality, id))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasStays
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
