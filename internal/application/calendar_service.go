package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/silab/internal/calendar"
	"github.com/example/silab/internal/persistence"
)

// CalendarService projects the ledger onto the weekly room-by-day grid.
type CalendarService struct {
	ledger BookingLedger
	rooms  RoomCatalog
	cache  *gridCache
	now    func() time.Time
	logger *slog.Logger
}

// NewCalendarService wires dependencies for calendar projection. cacheTTL
// bounds how stale a cached grid may grow before it is recomputed.
func NewCalendarService(ledger BookingLedger, rooms RoomCatalog, now func() time.Time, cacheTTL time.Duration, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{
		ledger: ledger,
		rooms:  rooms,
		cache:  newGridCache(cacheTTL, 0, now),
		now:    now,
		logger: defaultLogger(logger),
	}
}

// InvalidateGrid drops every cached week grid. Wired as the booking service's
// mutation hook.
func (s *CalendarService) InvalidateGrid() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// WeekGrid returns the projected grid for the week containing anchor. A zero
// anchor means the current week.
func (s *CalendarService) WeekGrid(ctx context.Context, anchor time.Time) (calendar.WeekGrid, error) {
	if s == nil {
		return calendar.WeekGrid{}, fmt.Errorf("CalendarService is nil")
	}
	if s.ledger == nil || s.rooms == nil {
		return calendar.WeekGrid{}, fmt.Errorf("calendar dependencies not configured")
	}

	if anchor.IsZero() {
		anchor = s.now()
	}
	weekStart := calendar.WeekStart(anchor)
	key := weekStart.UTC().Format(time.RFC3339)

	if grid, ok := s.cache.Get(key); ok {
		return grid, nil
	}

	logger := serviceLogger(ctx, s.logger, "CalendarService", "WeekGrid", "week_start", key)

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list rooms", "error", err)
		return calendar.WeekGrid{}, err
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	entries, err := s.ledger.ListBookings(ctx, persistence.BookingFilter{
		StartsAfter: &weekStart,
		EndsBefore:  &weekEnd,
	})
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		logger.ErrorContext(ctx, "failed to list bookings", "error", err)
		return calendar.WeekGrid{}, err
	}

	grid := calendar.Project(toCalendarRooms(rooms), toCalendarEntries(entries), anchor)
	s.cache.Store(key, grid)
	return grid, nil
}

func toCalendarRooms(rooms []persistence.Room) []calendar.Room {
	out := make([]calendar.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, calendar.Room{ID: room.ID, Name: room.Name})
	}
	return out
}

func toCalendarEntries(entries []persistence.Booking) []calendar.Entry {
	out := make([]calendar.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, calendar.Entry{
			ID:            entry.ID,
			RoomID:        entry.RoomID,
			RoomName:      entry.RoomName,
			RequesterName: entry.RequesterName,
			Purpose:       entry.Purpose,
			Start:         entry.Start,
			End:           entry.End,
			Status:        entry.Status,
		})
	}
	return out
}
