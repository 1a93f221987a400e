package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"squashledger/internal/adapters/http/middleware"
	"squashledger/internal/application/orchestrators"
	"squashledger/internal/application/projections"
	"squashledger/internal/domain/ledger"
)

// indexPage is the data for index.html.
type indexPage struct {
	Date        time.Time
	Occurrences []projections.Occurrence
	Records     []ledger.Record
	SummaryText string
	Fee         decimal.Decimal
	CanSend     bool
	Message     string
	Error       string
}

// loginPage is the data for login.html.
type loginPage struct {
	Error string
}

// handleIndex handles GET /, the organizer's view of one occurrence.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	date, err := resolveDate(q.Get("date"))
	if err != nil {
		date, _ = resolveDate("")
	}

	occurrences, err := projections.QueryUpcomingOccurrences(ctx, projections.UpcomingOccurrencesQuery{Now: app.now()},
		projections.UpcomingOccurrencesDeps{View: app.View, Rules: app.Rules})
	if err != nil {
		renderStoreError(w, r, err)
		return
	}
	rows, err := projections.QueryGetLedger(ctx, projections.GetLedgerQuery{Date: date}, projections.GetLedgerDeps{View: app.View})
	if err != nil {
		renderStoreError(w, r, err)
		return
	}
	sum, err := projections.QueryGetSummary(ctx, projections.GetSummaryQuery{Date: date}, projections.GetSummaryDeps{
		View: app.View, Rules: app.Rules, Format: app.Format,
	})
	if err != nil {
		renderStoreError(w, r, err)
		return
	}

	renderTemplate(w, r, "index.html", indexPage{
		Date:        date,
		Occurrences: occurrences,
		Records:     rows.Records,
		SummaryText: sum.Text,
		Fee:         app.Rules.Fee,
		CanSend:     app.Notifier != nil,
		Message:     q.Get("msg"),
		Error:       q.Get("err"),
	})
}

// renderStoreError shows a plain retry page when the ledger cannot be read.
func renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, msg)
}

// redirectIndex sends the browser back to the occurrence page with a flash message.
func redirectIndex(w http.ResponseWriter, r *http.Request, date time.Time, key, msg string) {
	v := url.Values{}
	if !date.IsZero() {
		v.Set("date", ledger.FormatDate(date))
	}
	if msg != "" {
		v.Set(key, msg)
	}
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

// redirectError maps err like the API does and carries the message back to the page.
func redirectError(w http.ResponseWriter, r *http.Request, date time.Time, err error) {
	_, msg := errorStatus(err)
	redirectIndex(w, r, date, "err", msg)
}

// parseUIForm handles the shared preamble of every UI form post.
func parseUIForm(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) {
		return time.Time{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return time.Time{}, false
	}
	date, err := ledger.ParseDate(r.PostFormValue("date"))
	if err != nil {
		redirectError(w, r, time.Time{}, err)
		return time.Time{}, false
	}
	return date, true
}

// handleUIAttendance handles POST /ui/attendance.
func handleUIAttendance(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	result, err := orchestrators.ExecuteAppendAttendance(r.Context(), orchestrators.AppendAttendanceInput{
		Date:       date,
		PlayerName: r.PostFormValue("player_name"),
	}, app.ledgerDeps())
	if err != nil {
		redirectError(w, r, date, err)
		return
	}
	if result.Duplicate {
		redirectIndex(w, r, date, "err", result.Record.PlayerName+" is already listed for this session")
		return
	}
	redirectIndex(w, r, date, "msg", "Added "+result.Record.PlayerName)
}

// handleUICourt handles POST /ui/court.
func handleUICourt(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	court, err := strconv.Atoi(r.PostFormValue("court"))
	if err != nil {
		redirectError(w, r, date, ledger.Invalidf("court must be a number"))
		return
	}
	rec, err := orchestrators.ExecuteAppendCourtExpense(r.Context(), orchestrators.AppendCourtExpenseInput{
		Date:     date,
		Court:    court,
		TimeSlot: r.PostFormValue("time_slot"),
	}, app.ledgerDeps())
	if err != nil {
		redirectError(w, r, date, err)
		return
	}
	redirectIndex(w, r, date, "msg", fmt.Sprintf("Booked court %d %s for %s", rec.Court, rec.TimeSlot, rec.Expense.StringFixed(2)))
}

// handleUIExpense handles POST /ui/expense.
func handleUIExpense(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.PostFormValue("amount")))
	if err != nil {
		redirectError(w, r, date, ledger.Invalidf("amount must be a number"))
		return
	}
	rec, err := orchestrators.ExecuteAppendOtherExpense(r.Context(), orchestrators.AppendOtherExpenseInput{
		Date:        date,
		Amount:      amount,
		Description: r.PostFormValue("description"),
	}, app.ledgerDeps())
	if err != nil {
		redirectError(w, r, date, err)
		return
	}
	redirectIndex(w, r, date, "msg", "Recorded "+rec.Description)
}

// handleUICollection handles POST /ui/collection.
func handleUICollection(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	players, err := strconv.Atoi(r.PostFormValue("players"))
	if err != nil {
		redirectError(w, r, date, ledger.ErrInvalidPlayers)
		return
	}
	rec, err := orchestrators.ExecuteAppendCollection(r.Context(), orchestrators.AppendCollectionInput{
		Date:    date,
		Players: players,
	}, app.ledgerDeps())
	if err != nil {
		redirectError(w, r, date, err)
		return
	}
	redirectIndex(w, r, date, "msg", "Collected "+rec.Collection.StringFixed(2))
}

// handleUIRows handles POST /ui/rows with action=paid or action=remove and one row field per checked box.
func handleUIRows(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	var handles []ledger.RowHandle
	for _, s := range r.PostForm["row"] {
		h, err := strconv.Atoi(s)
		if err != nil {
			redirectError(w, r, date, ledger.Invalidf("row %q is not a row number", s))
			return
		}
		handles = append(handles, ledger.RowHandle(h))
	}

	switch r.PostFormValue("action") {
	case "paid":
		result, err := orchestrators.ExecuteMarkPaid(r.Context(), orchestrators.MarkPaidInput{
			RowHandles: handles,
			Fee:        app.Rules.Fee,
		}, app.ledgerDeps())
		if err != nil {
			redirectError(w, r, date, err)
			return
		}
		msg := paidMessage(result)
		redirectIndex(w, r, date, "msg", msg)
	case "remove":
		result, err := orchestrators.ExecuteRemoveBookings(r.Context(), orchestrators.RemoveBookingsInput{RowHandles: handles}, app.ledgerDeps())
		if err != nil {
			redirectError(w, r, date, err)
			return
		}
		msg := fmt.Sprintf("Removed %d row(s)", len(result.Removed))
		redirectIndex(w, r, date, "msg", msg)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// paidMessage lists who paid and where their next-week booking landed.
func paidMessage(result orchestrators.MarkPaidResult) string {
	parts := []string{fmt.Sprintf("Marked %d paid", len(result.Paid))}
	if names := orchestrators.Names(result.AutoBooked); len(names) > 0 {
		parts = append(parts, "booked next week: "+strings.Join(names, ", "))
	}
	if names := orchestrators.Names(result.AlreadyBooked); len(names) > 0 {
		parts = append(parts, "already booked: "+strings.Join(names, ", "))
	}
	if names := orchestrators.Names(result.BookingFailed); len(names) > 0 {
		parts = append(parts, "could not book: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

// handleUISend handles POST /ui/send.
func handleUISend(w http.ResponseWriter, r *http.Request) {
	date, ok := parseUIForm(w, r)
	if !ok {
		return
	}
	result, err := sendSummary(r, date)
	if err != nil {
		redirectError(w, r, date, err)
		return
	}
	if !result.Delivered {
		redirectIndex(w, r, date, "err", "The summary could not be delivered; copy it below and post it manually")
		return
	}
	redirectIndex(w, r, date, "msg", "Summary sent")
}

// handleLogin handles GET (form) and POST (token check) for /login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if len(app.TokenHash) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, "login.html", loginPage{})
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		if !middleware.CheckToken(app.TokenHash, r.PostFormValue("token")) {
			slog.Warn("login_failed", "remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			renderTemplate(w, r, "login.html", loginPage{Error: "That token is not right."})
			return
		}
		token, err := sessions.Create(middleware.RoleOrganizer)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)
		slog.Info("login", "role", middleware.RoleOrganizer)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles POST /logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
