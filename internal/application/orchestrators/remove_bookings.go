package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"squashledger/internal/domain/ledger"
)

// RemoveBookingsInput carries input for the remove bookings orchestrator.
type RemoveBookingsInput struct {
	RowHandles []ledger.RowHandle
}

// RemoveBookingsResult lists the records that were deleted.
type RemoveBookingsResult struct {
	Removed []ledger.Record
}

// ExecuteRemoveBookings deletes the selected rows.
// Deletion is positional, so handles are sent in strictly descending order:
// removing a lower row first would shift the rows above it.
// PRE: RowHandles non-empty, all >= FirstDataRow
// POST: Exactly the selected rows are gone; all other rows keep their relative order
func ExecuteRemoveBookings(ctx context.Context, input RemoveBookingsInput, deps LedgerDeps) (RemoveBookingsResult, error) {
	handles, err := checkSelection(input.RowHandles)
	if err != nil {
		return RemoveBookingsResult{}, err
	}

	records, err := deps.View.Fresh(ctx)
	if err != nil {
		return RemoveBookingsResult{}, err
	}
	byHandle := ledger.ByHandle(records)

	sort.Slice(handles, func(i, j int) bool { return handles[i] > handles[j] })
	removed := make([]ledger.Record, 0, len(handles))
	for _, h := range handles {
		rec, ok := byHandle[h]
		if !ok {
			return RemoveBookingsResult{}, ledger.Invalidf("row %d no longer exists; refresh and try again", h)
		}
		removed = append(removed, rec)
	}

	if err := deps.Store.DeleteRows(ctx, handles); err != nil {
		return RemoveBookingsResult{}, fmt.Errorf("remove bookings: %w", err)
	}
	deps.View.Invalidate(ctx)

	slog.Info("ledger_event", "event", "bookings_removed", "count", len(removed))
	announce(ctx, deps, distinctDates(removed), "bookings_removed")
	return RemoveBookingsResult{Removed: removed}, nil
}
