package projections

import (
	"context"
	"time"

	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// GetSummaryQuery carries input for the summary projection.
type GetSummaryQuery struct {
	Date time.Time // optional: if zero, the next occurrence from Now is used
	Now  time.Time // optional: if zero, time.Now() is used
}

// GetSummaryDeps holds dependencies for the summary projection.
type GetSummaryDeps struct {
	View   LedgerReader
	Rules  ledger.Rules
	Format summary.Format
}

// GetSummaryResult carries the summary and its rendered message.
type GetSummaryResult struct {
	Summary summary.Summary
	Text    string
}

// QueryGetSummary builds the occurrence summary from the cached ledger.
// PRE: none
// POST: Summary covers query.Date (or the next occurrence); Text is the notification message
func QueryGetSummary(ctx context.Context, query GetSummaryQuery, deps GetSummaryDeps) (GetSummaryResult, error) {
	date := query.Date
	if date.IsZero() {
		now := query.Now
		if now.IsZero() {
			now = time.Now()
		}
		date = ledger.NextOccurrences(now, deps.Rules.Weekday, 1)[0]
	}

	records, err := deps.View.Get(ctx)
	if err != nil {
		return GetSummaryResult{}, err
	}
	s := summary.Build(records, date)
	return GetSummaryResult{Summary: s, Text: summary.Render(s, deps.Format)}, nil
}
