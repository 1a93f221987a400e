package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"squashledger/internal/adapters/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05Z07:00"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Compile-time check that *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// LastSent retrieves the last send date for name.
// PRE: name is non-empty
// POST: Returns the date at midnight in loc, or zero time if never sent
func (s *SQLiteStore) LastSent(ctx context.Context, name string, loc *time.Location) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sent FROM reminder_state WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reminder %s: bad last_sent %q: %w", name, raw, err)
	}
	return t, nil
}

// SetLastSent inserts or updates the send date for name.
// PRE: name is non-empty
// POST: last_sent holds sent's calendar date in sent's location
func (s *SQLiteStore) SetLastSent(ctx context.Context, name string, sent time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminder_state (name, last_sent, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   last_sent=excluded.last_sent, updated_at=excluded.updated_at`,
		name, sent.Format(dateLayout), sent.UTC().Format(timeLayout))
	return err
}
