package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/calendar"
	"github.com/example/silab/internal/persistence"
)

// BookingLedger captures the persistence interactions needed by the booking service.
type BookingLedger interface {
	CreateBooking(ctx context.Context, b persistence.Booking) error
	GetBooking(ctx context.Context, id string) (persistence.Booking, error)
	UpdateBookingStatus(ctx context.Context, b persistence.Booking) error
	ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error)
	ListActiveForRoom(ctx context.Context, roomID string) ([]persistence.Booking, error)
	CountByStatus(ctx context.Context) (map[booking.Status]int, error)
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
}

// EquipmentInventory exposes the inventory reads needed by the dashboard.
type EquipmentInventory interface {
	ListEquipment(ctx context.Context) ([]persistence.Equipment, error)
}

// BookingService orchestrates the ledger and the approval state machine.
type BookingService struct {
	ledger      BookingLedger
	rooms       RoomCatalog
	equipment   EquipmentInventory
	locks       *roomLocks
	idGenerator func() string
	now         func() time.Time
	onMutate    func()
	logger      *slog.Logger
}

// NewBookingService wires dependencies for ledger operations. onMutate, when
// non-nil, is invoked after every successful ledger write so derived views can
// invalidate themselves.
func NewBookingService(ledger BookingLedger, rooms RoomCatalog, equipment EquipmentInventory, idGenerator func() string, now func() time.Time, onMutate func(), logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if onMutate == nil {
		onMutate = func() {}
	}
	return &BookingService{
		ledger:      ledger,
		rooms:       rooms,
		equipment:   equipment,
		locks:       newRoomLocks(),
		idGenerator: idGenerator,
		now:         now,
		onMutate:    onMutate,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Submit validates a booking request and appends it to the ledger as pending.
func (s *BookingService) Submit(ctx context.Context, params SubmitBookingParams) (result Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "Submit",
		"requester_id", principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking submission failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", result.ID).InfoContext(ctx, "booking submitted")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	vErr := &ValidationError{}
	validateBookingInterval(input, now, vErr)
	if strings.TrimSpace(input.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room persistence.Room
	room, err = s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			err = vErr
		}
		return
	}

	s.locks.Lock(room.ID)
	defer s.locks.Unlock(room.ID)

	entry := persistence.Booking{
		ID:            s.idGenerator(),
		RequesterID:   principal.UserID,
		RequesterName: principal.DisplayName,
		RoomID:        room.ID,
		RoomName:      room.Name,
		Start:         input.Start,
		End:           input.End,
		Purpose:       strings.TrimSpace(input.Purpose),
		Status:        booking.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.ensureNoConflicts(ctx, entry); err != nil {
		return
	}

	if err = s.ledger.CreateBooking(ctx, entry); err != nil {
		err = s.mapLedgerError(ctx, err, entry)
		return
	}

	s.onMutate()
	result = fromPersistenceBooking(entry)
	return
}

// Transition moves a ledger entry to a new status, enforcing role gates and
// the state machine. Approval re-validates the room overlap.
func (s *BookingService) Transition(ctx context.Context, params TransitionBookingParams) (result Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	principal := params.Principal
	newStatus := params.NewStatus

	logger := s.loggerWith(ctx, "Transition",
		"booking_id", params.BookingID,
		"new_status", string(newStatus),
		"actor_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "status transition failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "status transition applied")
	}()

	if !newStatus.Valid() {
		err = ErrInvalidTransition
		return
	}

	var existing persistence.Booking
	existing, err = s.ledger.GetBooking(ctx, params.BookingID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	if err = authorizeTransition(principal, existing, newStatus); err != nil {
		return
	}

	if !booking.CanTransition(existing.Status, newStatus) {
		err = ErrInvalidTransition
		return
	}

	now := s.now()
	updated := existing
	updated.Status = newStatus
	updated.UpdatedAt = now
	if newStatus == booking.StatusApproved || newStatus == booking.StatusRejected {
		actor := principal.UserID
		updated.DecidedBy = &actor
		updated.DecidedAt = &now
	}

	s.locks.Lock(existing.RoomID)
	defer s.locks.Unlock(existing.RoomID)

	if newStatus.Active() {
		if err = s.ensureNoConflicts(ctx, updated); err != nil {
			return
		}
	}

	if err = s.ledger.UpdateBookingStatus(ctx, updated); err != nil {
		err = s.mapLedgerError(ctx, err, updated)
		return
	}

	s.onMutate()
	result = fromPersistenceBooking(updated)
	return
}

// List enumerates ledger entries visible to the principal, most recent
// submission first. Non-administrators only ever see their own requests.
func (s *BookingService) List(ctx context.Context, params ListBookingsParams) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("booking ledger not configured")
	}

	principal := params.Principal
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if params.Scope == ListScopeAll && !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	filter := persistence.BookingFilter{
		Status: params.Status,
		RoomID: params.RoomID,
	}
	if params.Scope != ListScopeAll {
		filter.RequesterID = principal.UserID
	}

	entries, err := s.ledger.ListBookings(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(entries))
	for _, entry := range entries {
		out = append(out, fromPersistenceBooking(entry))
	}
	return out, nil
}

// Get returns a single ledger entry. Non-administrators may only read their own.
func (s *BookingService) Get(ctx context.Context, principal Principal, id string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.ledger == nil {
		return Booking{}, fmt.Errorf("booking ledger not configured")
	}

	entry, err := s.ledger.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}

	if entry.RequesterID != principal.UserID && !principal.IsAdmin() {
		return Booking{}, ErrUnauthorized
	}

	return fromPersistenceBooking(entry), nil
}

// Dashboard aggregates the landing-page counters.
func (s *BookingService) Dashboard(ctx context.Context, principal Principal) (DashboardSummary, error) {
	if s == nil {
		return DashboardSummary{}, fmt.Errorf("BookingService is nil")
	}
	if s.ledger == nil {
		return DashboardSummary{}, fmt.Errorf("booking ledger not configured")
	}
	if principal.UserID == "" {
		return DashboardSummary{}, ErrUnauthorized
	}

	counts, err := s.ledger.CountByStatus(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}

	summary := DashboardSummary{
		PendingBookings:  counts[booking.StatusPending],
		ApprovedBookings: counts[booking.StatusApproved],
	}

	if s.rooms != nil {
		rooms, err := s.rooms.ListRooms(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		summary.Rooms = len(rooms)
	}

	if s.equipment != nil {
		items, err := s.equipment.ListEquipment(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		summary.EquipmentItems = len(items)
		for _, item := range items {
			if item.Condition == ConditionMaintenance {
				summary.EquipmentMaintenance++
			}
		}
	}

	return summary, nil
}

// ExpireOverdue sweeps the ledger and moves pending requests whose interval
// already ended to the expired status. It returns the number of entries swept.
func (s *BookingService) ExpireOverdue(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("BookingService is nil")
	}
	if s.ledger == nil {
		return 0, fmt.Errorf("booking ledger not configured")
	}

	logger := s.loggerWith(ctx, "ExpireOverdue")

	now := s.now()
	pending, err := s.ledger.ListBookings(ctx, persistence.BookingFilter{Status: booking.StatusPending})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, entry := range pending {
		if !entry.End.Before(now) {
			continue
		}
		entry.Status = booking.StatusExpired
		entry.UpdatedAt = now
		if err := s.ledger.UpdateBookingStatus(ctx, entry); err != nil {
			logger.ErrorContext(ctx, "failed to expire booking", "booking_id", entry.ID, "error", err)
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		s.onMutate()
		logger.InfoContext(ctx, "expired overdue bookings", "count", expired)
	}
	return expired, nil
}

// ensureNoConflicts checks the candidate against the active entries for its
// room and returns a ConflictError listing every overlap.
func (s *BookingService) ensureNoConflicts(ctx context.Context, candidate persistence.Booking) error {
	active, err := s.ledger.ListActiveForRoom(ctx, candidate.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}

	existing := make([]booking.Booking, 0, len(active))
	for _, entry := range active {
		existing = append(existing, toDomainBooking(entry))
	}

	conflicts := booking.DetectConflicts(existing, toDomainBooking(candidate))
	if len(conflicts) == 0 {
		return nil
	}

	overlaps := make([]ConflictOverlap, 0, len(conflicts))
	for _, conflict := range conflicts {
		overlaps = append(overlaps, ConflictOverlap{
			BookingID: conflict.WithBookingID,
			RoomID:    conflict.RoomID,
			Start:     conflict.Start,
			End:       conflict.End,
		})
	}
	return &ConflictError{Overlaps: overlaps}
}

// mapLedgerError converts persistence sentinels to application errors. The
// repository re-runs the overlap check inside its transaction, so an overlap
// slipping past ensureNoConflicts still surfaces as a ConflictError.
func (s *BookingService) mapLedgerError(ctx context.Context, err error, candidate persistence.Booking) error {
	switch {
	case errors.Is(err, persistence.ErrOverlap):
		if cErr := s.ensureNoConflicts(ctx, candidate); cErr != nil {
			return cErr
		}
		return &ConflictError{}
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("requester_id", "related records are missing")
		return vErr
	}
	return err
}

func authorizeTransition(principal Principal, existing persistence.Booking, newStatus booking.Status) error {
	switch newStatus {
	case booking.StatusApproved, booking.StatusRejected, booking.StatusCompleted:
		if !principal.IsAdmin() {
			return ErrUnauthorized
		}
	case booking.StatusCancelled:
		if existing.RequesterID != principal.UserID && !principal.IsAdmin() {
			return ErrUnauthorized
		}
	default:
		// kedaluwarsa is only ever set by the expiry sweep, pending only at submission.
		return ErrInvalidTransition
	}
	return nil
}

func validateBookingInterval(input BookingInput, now time.Time, vErr *ValidationError) {
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return
	}
	if !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
		return
	}
	if !calendar.SameDay(input.Start, input.End) {
		vErr.add("time", "booking must start and end on the same day")
	}
	if !input.Start.After(now) {
		vErr.add("start", "start must be in the future")
	}
}

func toDomainBooking(entry persistence.Booking) booking.Booking {
	return booking.Booking{
		ID:     entry.ID,
		RoomID: entry.RoomID,
		Start:  entry.Start,
		End:    entry.End,
		Status: entry.Status,
	}
}

func fromPersistenceBooking(entry persistence.Booking) Booking {
	return Booking{
		ID:            entry.ID,
		RequesterID:   entry.RequesterID,
		RequesterName: entry.RequesterName,
		RoomID:        entry.RoomID,
		RoomName:      entry.RoomName,
		Start:         entry.Start,
		End:           entry.End,
		Purpose:       entry.Purpose,
		Status:        entry.Status,
		DecidedBy:     entry.DecidedBy,
		DecidedAt:     entry.DecidedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
