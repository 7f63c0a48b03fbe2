package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrationStep is one versioned schema change. Steps are applied in order
// inside a transaction and recorded in schema_migrations, so the on-disk
// schema always carries an explicit version.
type migrationStep struct {
	Version     int
	Description string
	SQL         string
}

var migrationSteps = []migrationStep{
	{
		Version:     1,
		Description: "create users, rooms, and sessions",
		SQL: `
CREATE TABLE users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
    display_name  TEXT NOT NULL,
    role          TEXT NOT NULL,
    student_id    TEXT,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE TABLE rooms (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    capacity   INTEGER NOT NULL CHECK (capacity > 0),
    location   TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE sessions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token      TEXT NOT NULL UNIQUE,
    expires_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    revoked_at TEXT
);
`,
	},
	{
		Version:     2,
		Description: "create booking ledger",
		SQL: `
CREATE TABLE bookings (
    id             TEXT PRIMARY KEY,
    requester_id   TEXT NOT NULL REFERENCES users(id),
    requester_name TEXT NOT NULL,
    room_id        TEXT NOT NULL,
    room_name      TEXT NOT NULL,
    start_at       TEXT NOT NULL,
    end_at         TEXT NOT NULL,
    purpose        TEXT NOT NULL,
    status         TEXT NOT NULL,
    decided_by     TEXT,
    decided_at     TEXT,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL,
    CHECK (start_at < end_at)
);

CREATE INDEX idx_bookings_room_status ON bookings (room_id, status);
CREATE INDEX idx_bookings_requester ON bookings (requester_id);
CREATE INDEX idx_bookings_created ON bookings (created_at);
`,
	},
	{
		Version:     3,
		Description: "create equipment inventory",
		SQL: `
CREATE TABLE equipment (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    condition  TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`,
	},
}

// Migrate applies all pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.helper.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version     INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at  TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrationSteps {
		if step.Version <= current {
			continue
		}
		step := step
		err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := s.helper.ExecTx(tx, step.SQL); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Description, err)
			}
			_, err := s.helper.ExecTx(tx,
				"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				step.Version, step.Description, formatTime(time.Now()),
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// SchemaVersion reports the highest applied migration version.
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	return s.schemaVersion(ctx)
}

func (s *Storage) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.helper.QueryRow(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
