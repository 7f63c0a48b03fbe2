package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/silab/internal/application"
	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/calendar"
	"github.com/example/silab/internal/persistence"
)

var (
	userCounter      uint64
	roomCounter      uint64
	equipmentCounter uint64
	bookingCounter   uint64
	sessionCounter   uint64
)

// referenceTime is a Monday morning in WIB so weekly calendar fixtures land
// inside a single projection window.
var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, calendar.Location)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account record.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	StudentID    *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@mhs.uinsaid.ac.id", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Role:         application.RoleStudent,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserRole sets the account role.
func WithUserRole(role string) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserAdmin marks the fixture as an administrator account.
func WithUserAdmin() UserOption {
	return func(f *UserFixture) {
		f.Role = application.RoleAdmin
	}
}

// WithUserStudentID sets the student number on the fixture.
func WithUserStudentID(nim string) UserOption {
	return func(f *UserFixture) {
		value := nim
		f.StudentID = &value
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         f.Role,
		StudentID:    copyStringPtr(f.StudentID),
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, DisplayName: f.DisplayName, Role: f.Role}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic laboratory room record.
type RoomFixture struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        id,
		Name:      fmt.Sprintf("Lab %03d", idx),
		Capacity:  int(20 + idx%10),
		Location:  "Gedung B Lantai 2",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomLocation overrides the generated location.
func WithRoomLocation(location string) RoomOption {
	return func(f *RoomFixture) {
		f.Location = location
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Location:  f.Location,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:     f.Name,
		Capacity: f.Capacity,
		Location: f.Location,
	}
}

// --------------------------- Equipment fixtures --------------------------

// EquipmentFixture represents a deterministic inventory record.
type EquipmentFixture struct {
	ID        string
	Name      string
	Quantity  int
	Condition string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EquipmentOption configures the generated equipment fixture.
type EquipmentOption func(*EquipmentFixture)

// NewEquipmentFixture returns a deterministic equipment fixture with optional overrides.
func NewEquipmentFixture(opts ...EquipmentOption) EquipmentFixture {
	idx := atomic.AddUint64(&equipmentCounter, 1)
	id := fmt.Sprintf("equipment-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EquipmentFixture{
		ID:        id,
		Name:      fmt.Sprintf("Proyektor %03d", idx),
		Quantity:  2,
		Condition: application.ConditionGood,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEquipmentID overrides the generated equipment ID.
func WithEquipmentID(id string) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.ID = id
	}
}

// WithEquipmentName overrides the generated name.
func WithEquipmentName(name string) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.Name = name
	}
}

// WithEquipmentQuantity overrides the generated quantity.
func WithEquipmentQuantity(quantity int) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.Quantity = quantity
	}
}

// WithEquipmentCondition sets the condition on the fixture.
func WithEquipmentCondition(condition string) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.Condition = condition
	}
}

// Persistence returns the fixture as a persistence.Equipment value.
func (f EquipmentFixture) Persistence() persistence.Equipment {
	return persistence.Equipment{
		ID:        f.ID,
		Name:      f.Name,
		Quantity:  f.Quantity,
		Condition: f.Condition,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Booking fixtures ---------------------------

// BookingFixture represents a deterministic ledger record.
type BookingFixture struct {
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

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional
// overrides. Each fixture occupies its own one hour slot on the reference day.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	id := fmt.Sprintf("booking-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := BookingFixture{
		ID:            id,
		RequesterID:   fmt.Sprintf("user-%03d", idx),
		RequesterName: fmt.Sprintf("User %03d", idx),
		RoomID:        fmt.Sprintf("room-%03d", idx),
		RoomName:      fmt.Sprintf("Lab %03d", idx),
		Start:         start,
		End:           start.Add(time.Hour),
		Purpose:       "Praktikum jaringan",
		Status:        booking.StatusPending,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRequester sets the requester ID and display name.
func WithBookingRequester(id, name string) BookingOption {
	return func(f *BookingFixture) {
		f.RequesterID = id
		f.RequesterName = name
	}
}

// WithBookingRoom sets the room ID and display name.
func WithBookingRoom(id, name string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = id
		f.RoomName = name
	}
}

// WithBookingInterval sets the start and end times.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingPurpose sets the stated purpose.
func WithBookingPurpose(purpose string) BookingOption {
	return func(f *BookingFixture) {
		f.Purpose = purpose
	}
}

// WithBookingStatus sets the ledger status.
func WithBookingStatus(status booking.Status) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// WithBookingDecision records the deciding admin and the decision time.
func WithBookingDecision(adminID string, at time.Time) BookingOption {
	return func(f *BookingFixture) {
		id := adminID
		when := at
		f.DecidedBy = &id
		f.DecidedAt = &when
	}
}

// WithBookingTimestamps sets both created and updated timestamps.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	var decidedAt *time.Time
	if f.DecidedAt != nil {
		t := *f.DecidedAt
		decidedAt = &t
	}
	return persistence.Booking{
		ID:            f.ID,
		RequesterID:   f.RequesterID,
		RequesterName: f.RequesterName,
		RoomID:        f.RoomID,
		RoomName:      f.RoomName,
		Start:         f.Start,
		End:           f.End,
		Purpose:       f.Purpose,
		Status:        f.Status,
		DecidedBy:     copyStringPtr(f.DecidedBy),
		DecidedAt:     decidedAt,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.BookingInput.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		RoomID:  f.RoomID,
		Start:   f.Start,
		End:     f.End,
		Purpose: f.Purpose,
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	id := fmt.Sprintf("session-%03d", idx)
	fixture := SessionFixture{
		ID:        id,
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUserID sets the owning user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: revoked,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
