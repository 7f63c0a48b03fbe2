// Package sqlite implements the persistence repositories on top of an
// embedded SQLite database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"time"

	"github.com/example/silab/internal/persistence"
)

// Storage bundles every repository implementation behind one database handle.
// It satisfies all of the persistence repository interfaces.
type Storage struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

var (
	_ persistence.UserRepository      = (*Storage)(nil)
	_ persistence.RoomRepository      = (*Storage)(nil)
	_ persistence.EquipmentRepository = (*Storage)(nil)
	_ persistence.BookingRepository   = (*Storage)(nil)
	_ persistence.SessionRepository   = (*Storage)(nil)
)

// Open connects to the SQLite database behind dsn.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
