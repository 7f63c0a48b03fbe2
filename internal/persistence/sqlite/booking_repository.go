package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/silab/internal/booking"
	"github.com/example/silab/internal/persistence"
)

// activeStatusesSQL matches bookings that still occupy their room interval.
const activeStatusesSQL = "('pending', 'disetujui')"

// CreateBooking inserts a new ledger entry. The overlap check and the insert
// run inside one transaction so that two concurrent submissions for the same
// room interval cannot both succeed.
func (s *Storage) CreateBooking(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" || !b.Start.Before(b.End) {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := s.ensureNoOverlapTx(tx, b); err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (id, requester_id, requester_name, room_id, room_name,
				start_at, end_at, purpose, status, decided_by, decided_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := s.helper.ExecTx(tx, query,
			b.ID,
			b.RequesterID,
			b.RequesterName,
			b.RoomID,
			b.RoomName,
			formatTime(b.Start),
			formatTime(b.End),
			b.Purpose,
			string(b.Status),
			optionalString(b.DecidedBy),
			formatOptionalTime(b.DecidedAt),
			formatTime(b.CreatedAt),
			formatTime(b.UpdatedAt),
		)
		if err != nil {
			return s.mapper.MapError(err)
		}
		return nil
	})
}

// GetBooking retrieves a ledger entry by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, selectBookingQuery+" WHERE id = ?", id)
	return s.scanBooking(row)
}

// UpdateBookingStatus persists a status transition. When the new status still
// occupies the interval the overlap is re-validated in the same transaction,
// so approving one of two competing pending requests invalidates the other.
func (s *Storage) UpdateBookingStatus(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" {
		return persistence.ErrNotFound
	}

	b.UpdatedAt = time.Now().UTC()

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if b.Status.Active() {
			if err := s.ensureNoOverlapTx(tx, b); err != nil {
				return err
			}
		}

		query := `
			UPDATE bookings
			SET status = ?, decided_by = ?, decided_at = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := s.helper.ExecTx(tx, query,
			string(b.Status),
			optionalString(b.DecidedBy),
			formatOptionalTime(b.DecidedAt),
			formatTime(b.UpdatedAt),
			b.ID,
		)
		if err != nil {
			return s.mapper.MapError(err)
		}
		return requireRowsAffected(result)
	})
}

// ListBookings returns ledger entries matching the filter, most recent
// submission first (the ledger's prepend-on-submit ordering).
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := selectBookingQuery
	var conditions []string
	var args []any

	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_at >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "end_at <= ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	return s.collectBookings(rows)
}

// ListActiveForRoom returns the pending and approved entries for one room.
func (s *Storage) ListActiveForRoom(ctx context.Context, roomID string) ([]persistence.Booking, error) {
	rows, err := s.helper.Query(ctx,
		selectBookingQuery+" WHERE room_id = ? AND status IN "+activeStatusesSQL+" ORDER BY start_at ASC, id ASC",
		roomID,
	)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	return s.collectBookings(rows)
}

// CountByStatus returns the number of ledger entries per status.
func (s *Storage) CountByStatus(ctx context.Context) (map[booking.Status]int, error) {
	rows, err := s.helper.Query(ctx, "SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	counts := make(map[booking.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, s.mapper.MapError(err)
		}
		counts[booking.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	return counts, nil
}

// ensureNoOverlapTx fails with ErrOverlap when an active booking other than b
// itself overlaps b's interval for the same room. RFC3339 UTC timestamps
// compare lexicographically, so the interval test runs directly in SQL.
func (s *Storage) ensureNoOverlapTx(tx *sql.Tx, b persistence.Booking) error {
	var count int
	err := s.helper.QueryRowTx(tx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE room_id = ?
		  AND id != ?
		  AND status IN `+activeStatusesSQL+`
		  AND start_at < ?
		  AND end_at > ?
	`, b.RoomID, b.ID, formatTime(b.End), formatTime(b.Start)).Scan(&count)
	if err != nil {
		return s.mapper.MapError(err)
	}
	if count > 0 {
		return persistence.ErrOverlap
	}
	return nil
}

const selectBookingQuery = `
	SELECT id, requester_id, requester_name, room_id, room_name,
		start_at, end_at, purpose, status, decided_by, decided_at, created_at, updated_at
	FROM bookings`

func (s *Storage) collectBookings(rows *sql.Rows) ([]persistence.Booking, error) {
	var bookings []persistence.Booking
	for rows.Next() {
		b, err := s.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return bookings, nil
}

func (s *Storage) scanBooking(row rowScanner) (persistence.Booking, error) {
	var b persistence.Booking
	var status string
	var decidedBy, decidedAtStr sql.NullString
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&b.ID,
		&b.RequesterID,
		&b.RequesterName,
		&b.RoomID,
		&b.RoomName,
		&startStr,
		&endStr,
		&b.Purpose,
		&status,
		&decidedBy,
		&decidedAtStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, s.mapper.MapError(err)
	}

	b.Status = booking.Status(status)
	if decidedBy.Valid {
		b.DecidedBy = &decidedBy.String
	}
	if decidedAtStr.Valid {
		decidedAt, err := parseTime(decidedAtStr.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to parse decided_at: %w", err)
		}
		b.DecidedAt = &decidedAt
	}

	if b.Start, err = parseTime(startStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_at: %w", err)
	}
	if b.End, err = parseTime(endStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_at: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return b, nil
}
