package storage

import (
	"hotelier/internal/audit"
	"hotelier/internal/domain/clients"
	"hotelier/internal/domain/hotels"
	"hotelier/internal/domain/roomcategories"
	"hotelier/internal/domain/rooms"
	"hotelier/internal/domain/stays"
	"hotelier/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Users          users.Store
	Hotels         hotels.Store
	RoomCategories roomcategories.Store
	Rooms          rooms.Store
	Clients        clients.Store
	Stays          stays.Store
	Audit          *audit.Store
}

func NewContainer(db *pgxpool.Pool, refs stays.ReferenceCodec) *Container {
	return &Container{
		Users:          users.NewRepository(db),
		Hotels:         hotels.NewRepository(db),
		RoomCategories: roomcategories.NewRepository(db),
		Rooms:          rooms.NewRepository(db),
		Clients:        clients.NewRepository(db),
		Stays:          stays.NewRepository(db, refs),
		Audit:          audit.NewStore(db),
	}
}
