package outbox

import (
	"context"

	domain "squashledger/internal/domain/outbox"
)

// Store persists failed deliveries.
type Store interface {
	// GetByID retrieves an entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or domain.ErrEntryNotFound
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an entry.
	// PRE: entry has been validated
	// POST: Entry is persisted (insert or update)
	Save(ctx context.Context, e domain.Entry) error

	// ListByStatus returns entries in status, newest first. An empty status lists every entry.
	// PRE: limit > 0
	// POST: Returns up to limit entries ordered by created_at desc
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)
}
