package persistence

import (
	"time"

	"github.com/example/silab/internal/booking"
)

// User represents a lab system account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	StudentID    *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable laboratory room.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Equipment represents an inventory item tracked by the lab.
type Equipment struct {
	ID        string
	Name      string
	Quantity  int
	Condition string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking represents a booking request stored in the ledger. Requester and
// room display names are denormalized snapshots taken at submission time.
type Booking struct {
	ID            string
	RequesterID   string
	RequesterName string
	RoomID        string
	RoomName      string
	Start         time.Time
	End           time.Time
	Purpose       string
	Status        booking.Status
	DecidedBy     *string
	DecidedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
