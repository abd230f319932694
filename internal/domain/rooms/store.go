package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hotelier/internal/db"
)

type Store interface {
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Room, int, error)
	GetByID(ctx context.Context, id int64) (*Room, error)
	Create(ctx context.Context, req CreateRoomRequest) (*Room, error)
	Update(ctx context.Context, id int64, req UpdateRoomRequest) (*Room, error)
	Delete(ctx context.Context, id int64) error
	// Occupy flips an available room to occupied, failing with ErrNotAvailable otherwise.
	Occupy(ctx context.Context, id int64) error
	Release(ctx context.Context, id int64) error
}

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Store {
	return &Repository{db: db}
}

const roomColumns = `id, hotel_id, category_id, number, floor, status, price_cents, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.HotelID, &r.CategoryID, &r.Number, &r.Floor, &r.Status, &r.PriceCents, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err, "rooms_hotel_id_number_key"):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrInvalidRefs
	}
	return err
}

func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Room, int, error) {
	var conds []string
	var args []any
	if filters.HotelID != nil {
		args = append(args, *filters.HotelID)
		conds = append(conds, fmt.Sprintf("hotel_id = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM rooms%s ORDER BY hotel_id, number LIMIT $%d OFFSET $%d`,
		roomColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Room, error) {
	return scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
}

func (r *Repository) Create(ctx context.Context, req CreateRoomRequest) (*Room, error) {
	query := `
		INSERT INTO rooms (hotel_id, category_id, number, floor, status, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + roomColumns
	return scanRoom(r.db.QueryRow(ctx, query, req.HotelID, req.CategoryID, req.Number, req.Floor, StatusAvailable, req.PriceCents))
}

// Update applies only the non-nil fields.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateRoomRequest) (*Room, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.CategoryID != nil {
		add("category_id", *req.CategoryID)
	}
	if req.Number != nil {
		add("number", *req.Number)
	}
	if req.Floor != nil {
		add("floor", *req.Floor)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		add("status", string(*req.Status))
	}
	if req.PriceCents != nil {
		add("price_cents", *req.PriceCents)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE rooms SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), roomColumns)
	return scanRoom(r.db.QueryRow(ctx, query, args...))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
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

func (r *Repository) Occupy(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE rooms SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, StatusOccupied, id, StatusAvailable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotAvailable
	}
	return nil
}

func (r *Repository) Release(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE rooms SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, StatusAvailable, id, StatusOccupied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
