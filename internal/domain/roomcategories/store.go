package roomcategories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hotelier/internal/db"
)

type Store interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, req UpsertRequest) (*Category, error)
	Update(ctx context.Context, id int64, req UpsertRequest) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Store {
	return &Repository{db: db}
}

const columns = `id, name, description, base_price_cents, capacity, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.BasePriceCents, &c.Capacity, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if db.IsUniqueViolation(err, "room_categories_name_key") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM room_categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query room categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Category, error) {
	return scanCategory(r.db.QueryRow(ctx, `SELECT `+columns+` FROM room_categories WHERE id = $1`, id))
}

func (r *Repository) Create(ctx context.Context, req UpsertRequest) (*Category, error) {
	query := `
		INSERT INTO room_categories (name, description, base_price_cents, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + columns
	return scanCategory(r.db.QueryRow(ctx, query, req.Name, req.Description, req.BasePriceCents, req.Capacity))
}

func (r *Repository) Update(ctx context.Context, id int64, req UpsertRequest) (*Category, error) {
	query := `
		UPDATE room_categories
		SET name = $1, description = $2, base_price_cents = $3, capacity = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + columns
	return scanCategory(r.db.QueryRow(ctx, query, req.Name, req.Description, req.BasePriceCents, req.Capacity, id))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM room_categories WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
