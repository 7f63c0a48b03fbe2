package application

import (
	"time"

	"github.com/example/silab/internal/booking"
)

// Role names for lab system accounts. The wire values keep the Indonesian
// labels used throughout the lab information system.
const (
	RoleAdmin    = "admin"
	RoleLecturer = "dosen"
	RoleStudent  = "mahasiswa"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID      string
	DisplayName string
	Role        string
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// BookingInput captures caller provided booking request fields.
type BookingInput struct {
	RoomID  string
	Start   time.Time
	End     time.Time
	Purpose string
}

// Booking represents a ledger entry exposed by the application services.
// Requester and room display names are snapshots taken at submission time.
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

// SubmitBookingParams wraps the data required to submit a booking request.
type SubmitBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// TransitionBookingParams wraps the data required to move a booking to a new status.
type TransitionBookingParams struct {
	Principal Principal
	BookingID string
	NewStatus booking.Status
}

// ListScope identifies whose bookings a listing should cover.
type ListScope string

const (
	// ListScopeMine constrains results to the principal's own requests.
	ListScopeMine ListScope = "mine"
	// ListScopeAll covers the whole ledger; administrators only.
	ListScopeAll ListScope = "all"
)

// ListBookingsParams wraps the data required to list ledger entries.
type ListBookingsParams struct {
	Principal Principal
	Scope     ListScope
	Status    booking.Status
	RoomID    string
}

// DashboardSummary aggregates the counts rendered on the dashboard landing page.
type DashboardSummary struct {
	PendingBookings      int
	ApprovedBookings     int
	Rooms                int
	EquipmentItems       int
	EquipmentMaintenance int
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Capacity int
	Location string
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

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Equipment condition labels.
const (
	ConditionGood        = "baik"
	ConditionBroken      = "rusak"
	ConditionMaintenance = "maintenance"
)

// EquipmentInput captures caller provided inventory item fields.
type EquipmentInput struct {
	Name      string
	Quantity  int
	Condition string
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

// CreateEquipmentParams wraps the data required to create an inventory item.
type CreateEquipmentParams struct {
	Principal Principal
	Input     EquipmentInput
}

// UpdateEquipmentParams wraps the data required to update an inventory item.
type UpdateEquipmentParams struct {
	Principal   Principal
	EquipmentID string
	Input       EquipmentInput
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Role        string
	StudentID   *string
	Password    string
}

// User represents a lab system account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        string
	StudentID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// RegisterParams captures the data submitted by the public student
// self-registration form.
type RegisterParams struct {
	Email           string
	DisplayName     string
	StudentID       string
	Password        string
	ConfirmPassword string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
