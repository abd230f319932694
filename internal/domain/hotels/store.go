package hotels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hotelier/internal/db"
)

type Store interface {
	List(ctx context.Context, search string, limit, offset int) ([]Hotel, int, error)
	GetByID(ctx context.Context, id int64) (*Hotel, error)
	Create(ctx context.Context, req CreateHotelRequest) (*Hotel, error)
	Update(ctx context.Context, id int64, req UpdateHotelRequest) (*Hotel, error)
	Delete(ctx context.Context, id int64) error
	AddPhoto(ctx context.Context, id int64, url string) (*Hotel, error)
	RemovePhoto(ctx context.Context, id int64, url string) (*Hotel, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) Store {
	return &Repository{db: db}
}

const hotelColumns = `id, name, address, city, phone, email, stars, photos, created_at, updated_at`

func scanHotel(row pgx.Row) (*Hotel, error) {
	var h Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Phone, &h.Email, &h.Stars, &h.Photos, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if h.Photos == nil {
		h.Photos = []string{}
	}
	return &h, nil
}

// List returns hotels ordered by name, optionally filtered by name or city.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Hotel, int, error) {
	cond := "TRUE"
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		cond = "(name ILIKE $1 OR city ILIKE $1)"
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM hotels WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count hotels: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM hotels WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		hotelColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer rows.Close()

	var out []Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan hotel row: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over rows: %w", err)
	}
	return out, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Hotel, error) {
	return scanHotel(r.db.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = $1`, id))
}

func (r *Repository) Create(ctx context.Context, req CreateHotelRequest) (*Hotel, error) {
	query := `
		INSERT INTO hotels (name, address, city, phone, email, stars)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + hotelColumns
	return scanHotel(r.db.QueryRow(ctx, query, req.Name, req.Address, req.City, req.Phone, req.Email, req.Stars))
}

// Update applies only the fields present in req.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateHotelRequest) (*Hotel, error) {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.City != nil {
		add("city", *req.City)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Stars != nil {
		add("stars", *req.Stars)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE hotels SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), hotelColumns)
	return scanHotel(r.db.QueryRow(ctx, query, args...))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM hotels WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasRooms
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AddPhoto(ctx context.Context, id int64, url string) (*Hotel, error) {
	query := `UPDATE hotels SET photos = array_append(photos, $1), updated_at = NOW() WHERE id = $2 RETURNING ` + hotelColumns
	return scanHotel(r.db.QueryRow(ctx, query, url, id))
}

func (r *Repository) RemovePhoto(ctx context.Context, id int64, url string) (*Hotel, error) {
	query := `UPDATE hotels SET photos = array_remove(photos, $1), updated_at = NOW() WHERE id = $2 RETURNING ` + hotelColumns
	return scanHotel(r.db.QueryRow(ctx, query, url, id))
}
