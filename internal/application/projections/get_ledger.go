package projections

import (
	"context"
	"time"

	"squashledger/internal/application/listutil"
	"squashledger/internal/domain/ledger"
)

// GetLedgerQuery carries input for the ledger projection.
type GetLedgerQuery struct {
	Date   time.Time // optional: if zero, every record is returned
	Filter listutil.FilterParams
	Page   listutil.PageParams // zero value returns every match on one page
}

// GetLedgerDeps holds dependencies for the ledger projection.
type GetLedgerDeps struct {
	View LedgerReader
}

// GetLedgerResult carries the matching records in store order.
type GetLedgerResult struct {
	Records []ledger.Record
	Page    listutil.PageInfo
}

// QueryGetLedger lists records with their row handles, for selection in
// mark paid and remove bookings.
// PRE: none
// POST: Records are in store order; handles are valid until the next insert or delete
func QueryGetLedger(ctx context.Context, query GetLedgerQuery, deps GetLedgerDeps) (GetLedgerResult, error) {
	records, err := deps.View.Get(ctx)
	if err != nil {
		return GetLedgerResult{}, err
	}

	out := make([]ledger.Record, 0, len(records))
	for _, r := range records {
		if !query.Date.IsZero() && !r.OnDate(query.Date) {
			continue
		}
		if !matchesFilter(r, query.Filter) {
			continue
		}
		out = append(out, r)
	}

	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(out))
	return GetLedgerResult{Records: listutil.Slice(out, info), Page: info}, nil
}

func matchesFilter(r ledger.Record, f listutil.FilterParams) bool {
	if f.Unpaid && (!r.IsAttendance() || r.Paid) {
		return false
	}
	if f.Kind != "" && recordKind(r) != f.Kind {
		return false
	}
	return f.Matches(r.PlayerName, r.Description)
}

// recordKind classifies a record for the kind filter.
func recordKind(r ledger.Record) string {
	switch {
	case r.IsAttendance():
		return listutil.KindAttendance
	case r.IsCourtBooking():
		return listutil.KindCourt
	case r.Description == ledger.DescCollection || (r.Collection.IsPositive() && r.Expense.IsZero()):
		return listutil.KindCollection
	default:
		return listutil.KindExpense
	}
}
