package reminder

import (
	"context"
	"time"
)

// Store persists the date each named reminder was last sent.
type Store interface {
	// LastSent returns the last send date, or the zero time if none is recorded.
	// PRE: name is non-empty
	// POST: Returns the stored date in loc, or zero time
	LastSent(ctx context.Context, name string, loc *time.Location) (time.Time, error)

	// SetLastSent records the send date.
	// PRE: name is non-empty
	// POST: A later LastSent returns sent's calendar date
	SetLastSent(ctx context.Context, name string, sent time.Time) error
}
