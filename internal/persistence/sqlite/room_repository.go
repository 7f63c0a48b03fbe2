package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/silab/internal/persistence"
)

// CreateRoom inserts a new room into the database.
func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
	}

	query := `
		INSERT INTO rooms (id, name, capacity, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.helper.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return nil
}

// UpdateRoom updates an existing room.
func (s *Storage) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}
	if room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	room.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.helper.Exec(ctx, query,
		room.Name,
		room.Capacity,
		room.Location,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return requireRowsAffected(result)
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, selectRoomQuery+" WHERE id = ?", id)
	return s.scanRoom(row)
}

// ListRooms returns all rooms ordered by name then ID.
func (s *Storage) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.helper.Query(ctx, selectRoomQuery+" ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := s.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	return rooms, nil
}

// DeleteRoom removes a room by ID. The delete is refused while pending or
// approved bookings still reference the room. Settled ledger entries are kept;
// they carry their own denormalized room name snapshot.
func (s *Storage) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var active int
		err := s.helper.QueryRowTx(tx,
			"SELECT COUNT(*) FROM bookings WHERE room_id = ? AND status IN ('pending', 'disetujui')",
			id,
		).Scan(&active)
		if err != nil {
			return s.mapper.MapError(err)
		}
		if active > 0 {
			return persistence.ErrForeignKeyViolation
		}

		result, err := s.helper.ExecTx(tx, "DELETE FROM rooms WHERE id = ?", id)
		if err != nil {
			return s.mapper.MapError(err)
		}

		return requireRowsAffected(result)
	})
}

const selectRoomQuery = `
	SELECT id, name, capacity, location, created_at, updated_at
	FROM rooms`

func (s *Storage) scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var location sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&location,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, s.mapper.MapError(err)
	}

	if location.Valid {
		room.Location = location.String
	}

	if room.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return room, nil
}
