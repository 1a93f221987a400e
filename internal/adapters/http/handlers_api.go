package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"squashledger/internal/application/listutil"
	"squashledger/internal/application/orchestrators"
	"squashledger/internal/application/projections"
	"squashledger/internal/domain/ledger"
)

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": app.View.Generation(),
	})
}

// handleLedger handles GET /api/ledger?date=YYYY-MM-DD&q=&kind=&unpaid=&page=&per_page=.
// PRE: every parameter is optional
// POST: returns the cached rows matching the filters; totals in X-Total-Count
func handleLedger(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	date, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	params := listutil.ParseListParams(r.URL.Query())
	result, err := projections.QueryGetLedger(r.Context(), projections.GetLedgerQuery{
		Date:   date,
		Filter: params.FilterParams,
		Page:   params.PageParams,
	}, projections.GetLedgerDeps{View: app.View})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Page.Total))
	w.Header().Set("X-Page", strconv.Itoa(result.Page.Page))
	w.Header().Set("X-Total-Pages", strconv.Itoa(result.Page.TotalPages))
	writeJSON(w, http.StatusOK, toRecordDTOs(result.Records))
}

type attendanceRequest struct {
	Date       string `json:"date"`
	PlayerName string `json:"player_name"`
}

// handleAttendance handles POST /api/attendance.
// PRE: organizer; body {date, player_name}
// POST: 201 with the new row, or 200 with duplicate=true when the player is already listed
func handleAttendance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req attendanceRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := orchestrators.ExecuteAppendAttendance(r.Context(), orchestrators.AppendAttendanceInput{
		Date:       date,
		PlayerName: req.PlayerName,
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Duplicate {
		writeJSON(w, http.StatusOK, map[string]any{
			"duplicate": true,
			"warning":   fmt.Sprintf("%s is already listed for %s", result.Record.PlayerName, req.Date),
			"record":    toRecordDTO(result.Record),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": toRecordDTO(result.Record)})
}

type courtExpenseRequest struct {
	Date     string `json:"date"`
	Court    int    `json:"court"`
	TimeSlot string `json:"time_slot"`
}

// handleCourtExpense handles POST /api/expenses/court.
// PRE: organizer; body {date, court, time_slot}
// POST: 201 with the priced court booking row
func handleCourtExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req courtExpenseRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteAppendCourtExpense(r.Context(), orchestrators.AppendCourtExpenseInput{
		Date:     date,
		Court:    req.Court,
		TimeSlot: req.TimeSlot,
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": toRecordDTO(rec)})
}

type otherExpenseRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// handleOtherExpense handles POST /api/expenses/other.
// PRE: organizer; body {date, amount, description}; amount may be a number or a string
// POST: 201 with the expense row
func handleOtherExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req otherExpenseRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteAppendOtherExpense(r.Context(), orchestrators.AppendOtherExpenseInput{
		Date:        date,
		Amount:      req.Amount,
		Description: req.Description,
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": toRecordDTO(rec)})
}

type collectionRequest struct {
	Date    string `json:"date"`
	Players int    `json:"players"`
}

// handleCollection handles POST /api/collections.
// PRE: organizer; body {date, players}
// POST: 201 with the lump-sum collection row
func handleCollection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req collectionRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteAppendCollection(r.Context(), orchestrators.AppendCollectionInput{
		Date:    date,
		Players: req.Players,
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": toRecordDTO(rec)})
}

type selectionRequest struct {
	RowHandles []int `json:"row_handles"`
}

func (s selectionRequest) handles() []ledger.RowHandle {
	out := make([]ledger.RowHandle, len(s.RowHandles))
	for i, h := range s.RowHandles {
		out[i] = ledger.RowHandle(h)
	}
	return out
}

// handlePayments handles POST /api/payments.
// PRE: organizer; body {row_handles}; handles come from the latest GET /api/ledger
// POST: rows paid at the configured fee; next-week bookings reported per player
func handlePayments(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req selectionRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteMarkPaid(r.Context(), orchestrators.MarkPaidInput{
		RowHandles: req.handles(),
		Fee:        app.Rules.Fee,
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paid":           toRecordDTOs(result.PaidRecords),
		"auto_booked":    toBookingDTOs(result.AutoBooked),
		"already_booked": toBookingDTOs(result.AlreadyBooked),
		"booking_failed": toBookingDTOs(result.BookingFailed),
	})
}

// handleBookings handles DELETE /api/bookings.
// PRE: organizer; body {row_handles}
// POST: exactly the selected rows are removed
func handleBookings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) || !requireOrganizer(w, r) {
		return
	}
	var req selectionRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteRemoveBookings(r.Context(), orchestrators.RemoveBookingsInput{
		RowHandles: req.handles(),
	}, app.ledgerDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": toRecordDTOs(result.Removed)})
}

// handleSummary handles GET /api/summary?date=YYYY-MM-DD[&format=json].
// Plain text by default so it can be pasted into a chat; JSON on request.
func handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	date, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := projections.QueryGetSummary(r.Context(), projections.GetSummaryQuery{
		Date: date,
		Now:  app.now(),
	}, projections.GetSummaryDeps{View: app.View, Rules: app.Rules, Format: app.Format})
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, toSummaryDTO(result.Summary, result.Text))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, result.Text)
}

type sendSummaryRequest struct {
	Date string `json:"date"`
}

// handleSummarySend handles POST /api/summary/send.
// PRE: organizer; body {date}, empty date selects the next occurrence
// POST: one delivery attempt; delivered=false with the text when the channel failed
func handleSummarySend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return
	}
	var req sendSummaryRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := sendSummary(r, date)
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{"delivered": result.Delivered, "text": result.Text}
	if !result.Delivered {
		body["warning"] = "the summary could not be delivered; copy the text and post it manually"
	}
	writeJSON(w, http.StatusOK, body)
}

// resolveDate parses s, defaulting to the next occurrence.
func resolveDate(s string) (time.Time, error) {
	date, err := parseOptionalDate(s)
	if err != nil || !date.IsZero() {
		return date, err
	}
	return ledger.NextOccurrences(app.now(), app.Rules.Weekday, 1)[0], nil
}

func sendSummary(r *http.Request, date time.Time) (orchestrators.SendSummaryResult, error) {
	deps := orchestrators.SendSummaryDeps{View: app.View, Notifier: app.Notifier, Format: app.Format}
	result, err := orchestrators.ExecuteSendSummary(r.Context(), orchestrators.SendSummaryInput{Date: date}, deps)
	if err != nil {
		return result, err
	}
	return result, nil
}

// handleRefresh handles POST /api/refresh.
// PRE: none
// POST: the shared generation is bumped and the ledger reloaded
func handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	app.View.Invalidate(r.Context())
	records, err := app.View.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("ledger_event", "event", "manual_refresh", "rows", len(records))
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": app.View.Generation(),
		"rows":       len(records),
	})
}

type occurrenceDTO struct {
	Date    string `json:"date"`
	Players int    `json:"players"`
	Paid    int    `json:"paid"`
}

// handleOccurrences handles GET /api/occurrences?n=4.
func handleOccurrences(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	n := 0
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	occurrences, err := projections.QueryUpcomingOccurrences(r.Context(), projections.UpcomingOccurrencesQuery{
		Count: n,
		Now:   app.now(),
	}, projections.UpcomingOccurrencesDeps{View: app.View, Rules: app.Rules})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, occurrenceDTO{Date: ledger.FormatDate(o.Date), Players: o.Players, Paid: o.Paid})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExport handles GET /api/export.xlsx?date=YYYY-MM-DD.
func handleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	date, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := projections.QueryExportWorkbook(r.Context(), projections.ExportWorkbookQuery{Date: date}, projections.ExportWorkbookDeps{
		View:  app.View,
		Sheet: app.Sheet,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.Write(result.Content)
}

// handlePerf handles GET /api/perf?minutes=60&top=10.
// PRE: organizer
// POST: aggregated request, store, query and notify timings
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !requireOrganizer(w, r) {
		return
	}
	if perfCollector == nil {
		http.Error(w, "performance collection disabled", http.StatusNotFound)
		return
	}
	minutes := 60
	if s := r.URL.Query().Get("minutes"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 24*60 {
			minutes = v
		}
	}
	top := 10
	if s := r.URL.Query().Get("top"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 100 {
			top = v
		}
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, top))
}
