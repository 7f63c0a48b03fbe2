package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/silab/internal/persistence"
)

// CreateEquipment inserts a new inventory item.
func (s *Storage) CreateEquipment(ctx context.Context, item persistence.Equipment) error {
	if item.ID == "" || item.Quantity < 0 {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	query := `
		INSERT INTO equipment (id, name, quantity, condition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.helper.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Quantity,
		item.Condition,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return nil
}

// UpdateEquipment updates an existing inventory item.
func (s *Storage) UpdateEquipment(ctx context.Context, item persistence.Equipment) error {
	if item.ID == "" {
		return persistence.ErrNotFound
	}
	if item.Quantity < 0 {
		return persistence.ErrConstraintViolation
	}

	item.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE equipment
		SET name = ?, quantity = ?, condition = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.helper.Exec(ctx, query,
		item.Name,
		item.Quantity,
		item.Condition,
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return requireRowsAffected(result)
}

// GetEquipment retrieves an inventory item by ID.
func (s *Storage) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	if id == "" {
		return persistence.Equipment{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, selectEquipmentQuery+" WHERE id = ?", id)
	return s.scanEquipment(row)
}

// ListEquipment returns all inventory items ordered by name then ID.
func (s *Storage) ListEquipment(ctx context.Context) ([]persistence.Equipment, error) {
	rows, err := s.helper.Query(ctx, selectEquipmentQuery+" ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var items []persistence.Equipment
	for rows.Next() {
		item, err := s.scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	return items, nil
}

// DeleteEquipment removes an inventory item by ID.
func (s *Storage) DeleteEquipment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := s.helper.Exec(ctx, "DELETE FROM equipment WHERE id = ?", id)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return requireRowsAffected(result)
}

const selectEquipmentQuery = `
	SELECT id, name, quantity, condition, created_at, updated_at
	FROM equipment`

func (s *Storage) scanEquipment(row rowScanner) (persistence.Equipment, error) {
	var item persistence.Equipment
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.Condition,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Equipment{}, persistence.ErrNotFound
		}
		return persistence.Equipment{}, s.mapper.MapError(err)
	}

	if item.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Equipment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Equipment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return item, nil
}
