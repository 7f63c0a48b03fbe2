package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/silab/internal/persistence"
)

// CreateUser inserts a new user into the database.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	query := `
		INSERT INTO users (id, email, display_name, role, student_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.helper.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		optionalString(user.StudentID),
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return nil
}

// UpdateUser updates an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, display_name = ?, role = ?, student_id = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.helper.Exec(ctx, query,
		user.Email,
		user.DisplayName,
		user.Role,
		optionalString(user.StudentID),
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return requireRowsAffected(result)
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, selectUserQuery+" WHERE id = ?", id)
	return s.scanUser(row)
}

// GetUserByEmail retrieves a user by email address. The email column is
// declared COLLATE NOCASE, so lookups are case-insensitive.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, selectUserQuery+" WHERE email = ?", email)
	return s.scanUser(row)
}

// ListUsers returns all users ordered by creation time then ID.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.helper.Query(ctx, selectUserQuery+" ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	return users, nil
}

// DeleteUser removes a user by ID. Users that still own bookings cannot be
// removed; the foreign key reports the dependency.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := s.helper.Exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return s.mapper.MapError(err)
	}

	return requireRowsAffected(result)
}

const selectUserQuery = `
	SELECT id, email, display_name, role, student_id, password_hash, created_at, updated_at
	FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var studentID sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&studentID,
		&user.PasswordHash,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, s.mapper.MapError(err)
	}

	if studentID.Valid {
		user.StudentID = &studentID.String
	}

	if user.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

func optionalString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
