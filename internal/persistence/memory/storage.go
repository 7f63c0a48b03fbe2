// Package memory provides a map-backed implementation of the persistence
// repositories with the same sentinel-error semantics as the SQLite storage.
// It backs unit tests and fixtures that do not want a database file.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/persistence"
)

var (
	_ persistence.UserRepository      = (*Storage)(nil)
	_ persistence.RoomRepository      = (*Storage)(nil)
	_ persistence.EquipmentRepository = (*Storage)(nil)
	_ persistence.BookingRepository   = (*Storage)(nil)
	_ persistence.SessionRepository   = (*Storage)(nil)
)

// Storage keeps every record in process memory guarded by one RWMutex.
type Storage struct {
	mu        sync.RWMutex
	users     map[string]persistence.User
	rooms     map[string]persistence.Room
	equipment map[string]persistence.Equipment
	bookings  map[string]persistence.Booking
	sessions  map[string]persistence.Session
}

// NewStorage constructs an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		users:     make(map[string]persistence.User),
		rooms:     make(map[string]persistence.Room),
		equipment: make(map[string]persistence.Equipment),
		bookings:  make(map[string]persistence.Booking),
		sessions:  make(map[string]persistence.Session),
	}
}

// CreateUser stores a new user, enforcing the unique case-insensitive email.
func (s *Storage) CreateUser(_ context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}

	applyTimestamps(&user.CreatedAt, &user.UpdatedAt)
	s.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateUser replaces an existing user record.
func (s *Storage) UpdateUser(_ context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	for id, other := range s.users {
		if id != user.ID && strings.EqualFold(other.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Storage) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns all users ordered by creation time then ID.
func (s *Storage) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// DeleteUser removes a user. Users that still own ledger entries cannot be
// removed; their sessions are dropped with them.
func (s *Storage) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.RequesterID == id {
			return persistence.ErrForeignKeyViolation
		}
	}

	delete(s.users, id)
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

// CreateRoom stores a new room, enforcing the unique name.
func (s *Storage) CreateRoom(_ context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return persistence.ErrDuplicate
		}
	}

	applyTimestamps(&room.CreatedAt, &room.UpdatedAt)
	s.rooms[room.ID] = room
	return nil
}

// UpdateRoom replaces an existing room record.
func (s *Storage) UpdateRoom(_ context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}
	if room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rooms[room.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	for id, other := range s.rooms {
		if id != room.ID && other.Name == room.Name {
			return persistence.ErrDuplicate
		}
	}

	room.CreatedAt = existing.CreatedAt
	room.UpdatedAt = time.Now().UTC()
	s.rooms[room.ID] = room
	return nil
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID.
func (s *Storage) ListRooms(_ context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// DeleteRoom removes a room unless active bookings still reference it.
func (s *Storage) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.RoomID == id && b.Status.Active() {
			return persistence.ErrForeignKeyViolation
		}
	}

	delete(s.rooms, id)
	return nil
}

// CreateEquipment stores a new inventory item, enforcing the unique name.
func (s *Storage) CreateEquipment(_ context.Context, item persistence.Equipment) error {
	if item.ID == "" || item.Quantity < 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.equipment[item.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.equipment {
		if existing.Name == item.Name {
			return persistence.ErrDuplicate
		}
	}

	applyTimestamps(&item.CreatedAt, &item.UpdatedAt)
	s.equipment[item.ID] = item
	return nil
}

// UpdateEquipment replaces an existing inventory item.
func (s *Storage) UpdateEquipment(_ context.Context, item persistence.Equipment) error {
	if item.ID == "" {
		return persistence.ErrNotFound
	}
	if item.Quantity < 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.equipment[item.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	for id, other := range s.equipment {
		if id != item.ID && other.Name == item.Name {
			return persistence.ErrDuplicate
		}
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	s.equipment[item.ID] = item
	return nil
}

// GetEquipment retrieves an inventory item by ID.
func (s *Storage) GetEquipment(_ context.Context, id string) (persistence.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.equipment[id]
	if !ok {
		return persistence.Equipment{}, persistence.ErrNotFound
	}
	return item, nil
}

// ListEquipment returns all inventory items ordered by name then ID.
func (s *Storage) ListEquipment(_ context.Context) ([]persistence.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]persistence.Equipment, 0, len(s.equipment))
	for _, item := range s.equipment {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// DeleteEquipment removes an inventory item.
func (s *Storage) DeleteEquipment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.equipment[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.equipment, id)
	return nil
}

// CreateBooking appends a ledger entry, checking the room overlap atomically
// under the storage lock.
func (s *Storage) CreateBooking(_ context.Context, b persistence.Booking) error {
	if b.ID == "" || !b.Start.Before(b.End) {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.users[b.RequesterID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if s.overlapsLocked(b) {
		return persistence.ErrOverlap
	}

	applyTimestamps(&b.CreatedAt, &b.UpdatedAt)
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

// GetBooking retrieves a ledger entry by ID.
func (s *Storage) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return cloneBooking(b), nil
}

// UpdateBookingStatus applies a status transition, re-checking the overlap
// when the new status still occupies the interval.
func (s *Storage) UpdateBookingStatus(_ context.Context, b persistence.Booking) error {
	if b.ID == "" {
		return persistence.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[b.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if b.Status.Active() && s.overlapsLocked(b) {
		return persistence.ErrOverlap
	}

	existing.Status = b.Status
	existing.DecidedBy = clonePtr(b.DecidedBy)
	existing.DecidedAt = clonePtr(b.DecidedAt)
	existing.UpdatedAt = time.Now().UTC()
	s.bookings[b.ID] = existing
	return nil
}

// ListBookings returns ledger entries matching the filter, most recent
// submission first.
func (s *Storage) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Booking
	for _, b := range s.bookings {
		if filter.RequesterID != "" && b.RequesterID != filter.RequesterID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.StartsAfter != nil && b.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && b.End.After(*filter.EndsBefore) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListActiveForRoom returns the pending and approved entries for one room,
// ordered by start time.
func (s *Storage) ListActiveForRoom(_ context.Context, roomID string) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Booking
	for _, b := range s.bookings {
		if b.RoomID == roomID && b.Status.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// CountByStatus returns the number of ledger entries per status.
func (s *Storage) CountByStatus(_ context.Context) (map[booking.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[booking.Status]int)
	for _, b := range s.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

// CreateSession stores a new session, enforcing the unique token.
func (s *Storage) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	if _, ok := s.users[session.UserID]; !ok {
		return persistence.Session{}, persistence.ErrForeignKeyViolation
	}

	applyTimestamps(&session.CreatedAt, &session.UpdatedAt)
	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by its token.
func (s *Storage) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// RevokeSession marks a session revoked at the given instant.
func (s *Storage) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session.RevokedAt = &revokedAt
	session.UpdatedAt = time.Now().UTC()
	s.sessions[token] = session
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired before the reference instant.
func (s *Storage) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Storage) overlapsLocked(candidate persistence.Booking) bool {
	for _, existing := range s.bookings {
		if existing.ID == candidate.ID || existing.RoomID != candidate.RoomID {
			continue
		}
		if !existing.Status.Active() {
			continue
		}
		if booking.Overlaps(candidate.Start, candidate.End, existing.Start, existing.End) {
			return true
		}
	}
	return false
}

func applyTimestamps(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

func cloneUser(user persistence.User) persistence.User {
	user.StudentID = clonePtr(user.StudentID)
	return user
}

func cloneBooking(b persistence.Booking) persistence.Booking {
	b.DecidedBy = clonePtr(b.DecidedBy)
	b.DecidedAt = clonePtr(b.DecidedAt)
	return b
}

func cloneSession(session persistence.Session) persistence.Session {
	session.RevokedAt = clonePtr(session.RevokedAt)
	return session
}

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
