package storage

import (
	"database/sql"
	"fmt"
)

// Pragmas appended to the SQLite DSN for WAL journaling and lock waits.
const Pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// InitDB initializes the local state schema. The ledger itself lives in the
// row store; SQLite only keeps small process state that must survive restarts.
// PRE: db is a valid database connection
// POST: All tables exist
func InitDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminder_state (
		name TEXT PRIMARY KEY,
		last_sent TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
