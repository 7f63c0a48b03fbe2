package persistence

import (
	"context"
	"time"

	"github.com/example/silab/internal/booking"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms. DeleteRoom must refuse to
// remove a room that active bookings still reference.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// EquipmentRepository exposes CRUD operations for inventory items.
type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, item Equipment) error
	UpdateEquipment(ctx context.Context, item Equipment) error
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries.
type BookingFilter struct {
	RequesterID string
	RoomID      string
	Status      booking.Status
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// BookingRepository stores the booking ledger. CreateBooking performs the
// room-overlap check and the insert inside one transaction, returning
// ErrOverlap when an active booking already occupies part of the interval.
// UpdateBookingStatus re-checks the overlap when the new status is active.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBookingStatus(ctx context.Context, b Booking) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	ListActiveForRoom(ctx context.Context, roomID string) ([]Booking, error)
	CountByStatus(ctx context.Context) (map[booking.Status]int, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
