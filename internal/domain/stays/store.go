package stays

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hotelier/internal/db"
	"hotelier/internal/domain/rooms"
)

type Store interface {
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Stay, int, error)
	GetByID(ctx context.Context, id int64) (*Stay, error)
	GetByReference(ctx context.Context, ref string) (*Stay, error)
	// Create records the stay and marks its room occupied in one transaction.
	Create(ctx context.Context, req CreateStayRequest) (*Stay, error)
	Update(ctx context.Context, id int64, req UpdateStayRequest) (*Stay, error)
	// Checkout completes an active stay and frees its room in one transaction.
	Checkout(ctx context.Context, id int64) (*Stay, error)
}

type Repository struct {
	pool *pgxpool.Pool
	refs ReferenceCodec
}

func NewRepository(pool *pgxpool.Pool, refs ReferenceCodec) Store {
	return &Repository{pool: pool, refs: refs}
}

const stayColumns = `id, reference, client_id, room_id, check_in, check_out, status, notes, created_at, updated_at`

func scanStay(row pgx.Row) (*Stay, error) {
	var s Stay
	err := row.Scan(&s.ID, &s.Reference, &s.ClientID, &s.RoomID, &s.CheckIn, &s.CheckOut, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Stay, int, error) {
	var conds []string
	var args []any
	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filters.RoomID != nil {
		args = append(args, *filters.RoomID)
		conds = append(conds, fmt.Sprintf("room_id = $%d", len(args)))
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stays`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stays: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM stays%s ORDER BY check_in DESC LIMIT $%d OFFSET $%d`,
		stayColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stays: %w", err)
	}
	defer rows.Close()

	var out []Stay
	for rows.Next() {
		s, err := scanStay(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Stay, error) {
	return scanStay(r.pool.QueryRow(ctx, `SELECT `+stayColumns+` FROM stays WHERE id = $1`, id))
}

func (r *Repository) GetByReference(ctx context.Context, ref string) (*Stay, error) {
	id, err := r.refs.Decode(strings.ToUpper(ref))
	if err != nil {
		return nil, err
	}
	return scanStay(r.pool.QueryRow(ctx, `SELECT `+stayColumns+` FROM stays WHERE id = $1 AND reference = $2`, id, strings.ToUpper(ref)))
}

func (r *Repository) Create(ctx context.Context, req CreateStayRequest) (*Stay, error) {
	if err := checkDates(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}

	var stay *Stay
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := rooms.NewRepository(tx).Occupy(ctx, req.RoomID); err != nil {
			return err
		}

		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO stays (client_id, room_id, check_in, check_out, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			req.ClientID, req.RoomID, req.CheckIn, req.CheckOut, StatusActive, req.Notes,
		).Scan(&id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrInvalidRefs
			}
			return fmt.Errorf("insert stay: %w", err)
		}

		ref, err := r.refs.Encode(id)
		if err != nil {
			return fmt.Errorf("encode reference: %w", err)
		}
		stay, err = scanStay(tx.QueryRow(ctx,
			`UPDATE stays SET reference = $1 WHERE id = $2 RETURNING `+stayColumns, ref, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return stay, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateStayRequest) (*Stay, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive {
		return nil, ErrNotActive
	}

	checkIn, checkOut, notes := current.CheckIn, current.CheckOut, current.Notes
	if req.CheckIn != nil {
		checkIn = *req.CheckIn
	}
	if req.CheckOut != nil {
		checkOut = req.CheckOut
	}
	if req.Notes != nil {
		notes = *req.Notes
	}
	if err := checkDates(checkIn, checkOut); err != nil {
		return nil, err
	}

	stay, err := scanStay(r.pool.QueryRow(ctx, `
		UPDATE stays SET check_in = $1, check_out = $2, notes = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING `+stayColumns, checkIn, checkOut, notes, id, StatusActive))
	if err != nil {
		return nil, noLongerActive(err)
	}
	return stay, nil
}

// noLongerActive maps a miss on a status-guarded write to ErrNotActive. The
// row was read as active just before, so it was checked out in between.
func noLongerActive(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotActive
	}
	return err
}

func (r *Repository) Checkout(ctx context.Context, id int64) (*Stay, error) {
	var stay *Stay
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		stay, err = scanStay(tx.QueryRow(ctx, `
			UPDATE stays
			SET status = $1, check_out = COALESCE(check_out, NOW()), updated_at = NOW()
			WHERE id = $2 AND status = $3
			RETURNING `+stayColumns, StatusCompleted, id, StatusActive))
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if qerr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stays WHERE id = $1)`, id).Scan(&exists); qerr != nil {
				return qerr
			}
			if exists {
				return ErrNotActive
			}
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return rooms.NewRepository(tx).Release(ctx, stay.RoomID)
	})
	if err != nil {
		return nil, err
	}
	return stay, nil
}
