package projections

import (
	"context"
	"time"

	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// Occurrence limits.
const (
	DefaultOccurrenceCount = 4
	MaxOccurrenceCount     = 52
)

// UpcomingOccurrencesQuery carries input for the upcoming occurrences projection.
type UpcomingOccurrencesQuery struct {
	Count int       // clamped to 1..MaxOccurrenceCount; zero selects DefaultOccurrenceCount
	Now   time.Time // optional: if zero, time.Now() is used
}

// UpcomingOccurrencesDeps holds dependencies for the upcoming occurrences projection.
type UpcomingOccurrencesDeps struct {
	View  LedgerReader // nil skips booking counts
	Rules ledger.Rules
}

// Occurrence is one upcoming session date with its booking counts.
type Occurrence struct {
	Date    time.Time
	Players int
	Paid    int
}

// QueryUpcomingOccurrences lists the next session dates starting today.
// PRE: none
// POST: Dates ascending, 7 days apart, all on Rules.Weekday
func QueryUpcomingOccurrences(ctx context.Context, query UpcomingOccurrencesQuery, deps UpcomingOccurrencesDeps) ([]Occurrence, error) {
	n := query.Count
	if n <= 0 {
		n = DefaultOccurrenceCount
	}
	if n > MaxOccurrenceCount {
		n = MaxOccurrenceCount
	}
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	var records []ledger.Record
	if deps.View != nil {
		var err error
		if records, err = deps.View.Get(ctx); err != nil {
			return nil, err
		}
	}

	dates := ledger.NextOccurrences(now, deps.Rules.Weekday, n)
	out := make([]Occurrence, len(dates))
	for i, d := range dates {
		s := summary.Build(records, d)
		out[i] = Occurrence{Date: d, Players: len(s.Attendees), Paid: s.PaidCount()}
	}
	return out, nil
}
