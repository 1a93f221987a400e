package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	storage "squashledger/internal/adapters/storage/ledger"
	"squashledger/internal/domain/ledger"
)

// MarkPaidInput carries input for the mark paid orchestrator.
type MarkPaidInput struct {
	RowHandles []ledger.RowHandle
	Fee        decimal.Decimal
}

// Booking names a player on an occurrence date.
type Booking struct {
	PlayerName string
	Date       time.Time
}

// MarkPaidResult reports the payments applied and the follow-on bookings.
type MarkPaidResult struct {
	Paid          []Booking
	PaidRecords   []ledger.Record // the selected rows as written
	AutoBooked    []Booking // successor occurrences newly booked
	AlreadyBooked []Booking // successor occurrences that already had the player
	BookingFailed []Booking // successor appends that failed; the payment stands
}

// ExecuteMarkPaid marks attendance rows paid and books each payer for the
// following week.
// PRE: RowHandles non-empty, all >= FirstDataRow; Fee >= 0
// POST: Each selected row has paid=TRUE, collection=Fee, balance=Fee-expense,
// written in one batch; each distinct payer is booked for date+7 unless already booked
func ExecuteMarkPaid(ctx context.Context, input MarkPaidInput, deps LedgerDeps) (MarkPaidResult, error) {
	handles, err := checkSelection(input.RowHandles)
	if err != nil {
		return MarkPaidResult{}, err
	}
	if input.Fee.IsNegative() {
		return MarkPaidResult{}, ledger.ErrNegativeAmount
	}

	// Handles come from an earlier read; resolve them against the store as it is now.
	records, err := deps.View.Fresh(ctx)
	if err != nil {
		return MarkPaidResult{}, err
	}
	byHandle := ledger.ByHandle(records)

	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	paid := make([]ledger.Record, 0, len(handles))
	updates := make([]storage.CellUpdate, 0, len(handles))
	for _, h := range handles {
		rec, ok := byHandle[h]
		if !ok {
			return MarkPaidResult{}, ledger.Invalidf("row %d no longer exists; refresh and try again", h)
		}
		if !rec.IsAttendance() {
			return MarkPaidResult{}, ledger.Invalidf("row %d is not an attendance entry", h)
		}
		// balance = collection - expense holds on every row, including hand-edited ones.
		rec = rec.WithPayment(input.Fee)
		paid = append(paid, rec)
		updates = append(updates, storage.CellUpdate{
			Row: h,
			Values: map[ledger.Column]string{
				ledger.ColPaid:       ledger.FormatBool(true),
				ledger.ColCollection: ledger.FormatAmount(rec.Collection),
				ledger.ColBalance:    ledger.FormatAmount(rec.Balance),
			},
		})
	}

	if err := deps.Store.UpdateCells(ctx, updates); err != nil {
		return MarkPaidResult{}, fmt.Errorf("mark paid: %w", err)
	}
	deps.View.Invalidate(ctx)

	result := MarkPaidResult{PaidRecords: paid}
	for _, rec := range paid {
		result.Paid = append(result.Paid, Booking{PlayerName: rec.PlayerName, Date: rec.Date})
	}
	slog.Info("ledger_event", "event", "payments_marked", "count", len(paid), "fee", input.Fee.String())

	bookSuccessors(ctx, deps, records, paid, &result)

	announce(ctx, deps, distinctDates(paid), "payments_marked")
	return result, nil
}

// bookSuccessors appends next-week attendance for each distinct payer.
// Failures are recorded in the result and never undo the payment.
func bookSuccessors(ctx context.Context, deps LedgerDeps, records, paid []ledger.Record, result *MarkPaidResult) {
	key := func(name string, d time.Time) string {
		return strings.ToLower(strings.TrimSpace(name)) + "|" + ledger.FormatDate(d)
	}

	booked := make(map[string]bool)
	for _, r := range records {
		if r.IsAttendance() && r.HasDate() {
			booked[key(r.PlayerName, r.Date)] = true
		}
	}

	handled := make(map[string]bool)
	appended := false
	for _, rec := range paid {
		if !rec.HasDate() {
			slog.Warn("ledger_event", "event", "auto_book_skipped", "player", rec.PlayerName, "row", int(rec.RowHandle), "reason", "no date")
			continue
		}
		next := ledger.Successor(rec.Date)
		k := key(rec.PlayerName, next)
		if handled[k] {
			continue
		}
		handled[k] = true
		b := Booking{PlayerName: rec.PlayerName, Date: next}

		if booked[k] {
			result.AlreadyBooked = append(result.AlreadyBooked, b)
			continue
		}
		if err := deps.Store.Append(ctx, ledger.NewAttendance(next, rec.PlayerName).Row()); err != nil {
			slog.Warn("ledger_event", "event", "auto_book_failed", "player", rec.PlayerName, "date", ledger.FormatDate(next), "error", err)
			result.BookingFailed = append(result.BookingFailed, b)
			continue
		}
		booked[k] = true
		appended = true
		result.AutoBooked = append(result.AutoBooked, b)
		slog.Info("ledger_event", "event", "auto_booked", "player", rec.PlayerName, "date", ledger.FormatDate(next))
	}

	if appended {
		deps.View.Invalidate(ctx)
	}
}

// Names returns the player names of the bookings in order.
func Names(bookings []Booking) []string {
	names := make([]string, len(bookings))
	for i, b := range bookings {
		names[i] = b.PlayerName
	}
	return names
}
