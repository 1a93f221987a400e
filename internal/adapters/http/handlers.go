package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/shopspring/decimal"

	"squashledger/internal/adapters/http/middleware"
	"squashledger/internal/application/orchestrators"
	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/outbox"
	"squashledger/internal/domain/summary"
)

// timeNow is a variable for testability.
var timeNow = time.Now

//go:embed templates/*.html
var templateFS embed.FS

// maxBodyBytes bounds JSON and form request bodies.
const maxBodyBytes = 64 << 10

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// errorStatus maps an orchestrator error to an HTTP status and a client-safe message.
// Validation messages are shown verbatim; store failures are logged and hidden.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orchestrators.ErrNoNotifier):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, outbox.ErrEntryNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, outbox.ErrResolved):
		return http.StatusConflict, err.Error()
	default:
		slog.Error("ledger_store_error", "error", err.Error())
		return http.StatusBadGateway, "the ledger could not be reached; please try again"
	}
}

// writeError writes err as a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireMethod rejects any method other than want.
func requireMethod(w http.ResponseWriter, r *http.Request, want string) bool {
	if r.Method != want {
		w.Header().Set("Allow", want)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// requireOrganizer gates ledger changes. With no token configured every caller is allowed.
func requireOrganizer(w http.ResponseWriter, r *http.Request) bool {
	if len(app.TokenHash) == 0 || middleware.IsOrganizer(r.Context()) {
		return true
	}
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return false
	}
	http.Error(w, "not authenticated", http.StatusUnauthorized)
	return false
}

// parseOptionalDate reads a YYYY-MM-DD date; empty yields the zero time.
func parseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return ledger.ParseDate(s)
}

// recordDTO is the wire form of one ledger row.
type recordDTO struct {
	RowHandle   int    `json:"row_handle"`
	Date        string `json:"date"`
	PlayerName  string `json:"player_name,omitempty"`
	Paid        *bool  `json:"paid,omitempty"`
	Court       *int   `json:"court,omitempty"`
	TimeSlot    string `json:"time_slot,omitempty"`
	Collection  string `json:"collection"`
	Expense     string `json:"expense"`
	Balance     string `json:"balance"`
	Description string `json:"description"`
}

func toRecordDTO(r ledger.Record) recordDTO {
	dto := recordDTO{
		RowHandle:   int(r.RowHandle),
		Date:        ledger.FormatDate(r.Date),
		PlayerName:  r.PlayerName,
		TimeSlot:    r.TimeSlot,
		Collection:  r.Collection.StringFixed(2),
		Expense:     r.Expense.StringFixed(2),
		Balance:     r.Balance.StringFixed(2),
		Description: r.Description,
	}
	if r.IsAttendance() {
		paid := r.Paid
		dto.Paid = &paid
	}
	if r.HasCourt {
		court := r.Court
		dto.Court = &court
	}
	return dto
}

func toRecordDTOs(records []ledger.Record) []recordDTO {
	out := make([]recordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordDTO(r))
	}
	return out
}

// bookingDTO is a player and date touched by a payment.
type bookingDTO struct {
	PlayerName string `json:"player_name"`
	Date       string `json:"date"`
}

func toBookingDTOs(bookings []orchestrators.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingDTO{PlayerName: b.PlayerName, Date: ledger.FormatDate(b.Date)})
	}
	return out
}

// summaryDTO is the JSON form of an occurrence summary.
type summaryDTO struct {
	Date      string        `json:"date"`
	Attendees []attendeeDTO `json:"attendees"`
	Courts    []courtDTO    `json:"courts"`
	Other     []entryDTO    `json:"other"`
	Paid      int           `json:"paid"`
	Totals    totalsDTO     `json:"totals"`
	Text      string        `json:"text"`
}

type attendeeDTO struct {
	Name string `json:"name"`
	Paid bool   `json:"paid"`
}

type courtDTO struct {
	Court    *int   `json:"court,omitempty"`
	TimeSlot string `json:"time_slot"`
	Expense  string `json:"expense"`
}

type entryDTO struct {
	Description string `json:"description"`
	Collection  string `json:"collection"`
	Expense     string `json:"expense"`
}

type totalsDTO struct {
	Collection string `json:"collection"`
	Expense    string `json:"expense"`
	Balance    string `json:"balance"`
}

func toSummaryDTO(s summary.Summary, text string) summaryDTO {
	dto := summaryDTO{
		Date:      ledger.FormatDate(s.Date),
		Attendees: make([]attendeeDTO, 0, len(s.Attendees)),
		Courts:    make([]courtDTO, 0, len(s.Courts)),
		Other:     make([]entryDTO, 0, len(s.Other)),
		Paid:      s.PaidCount(),
		Totals: totalsDTO{
			Collection: s.Totals.Collection.StringFixed(2),
			Expense:    s.Totals.Expense.StringFixed(2),
			Balance:    s.Totals.Balance.StringFixed(2),
		},
		Text: text,
	}
	for _, a := range s.Attendees {
		dto.Attendees = append(dto.Attendees, attendeeDTO{Name: a.Name, Paid: a.Paid})
	}
	for _, c := range s.Courts {
		cd := courtDTO{TimeSlot: c.TimeSlot, Expense: c.Expense.StringFixed(2)}
		if c.HasCourt {
			court := c.Court
			cd.Court = &court
		}
		dto.Courts = append(dto.Courts, cd)
	}
	for _, e := range s.Other {
		dto.Other = append(dto.Other, entryDTO{
			Description: e.Description,
			Collection:  e.Collection.StringFixed(2),
			Expense:     e.Expense.StringFixed(2),
		})
	}
	return dto
}

// renderTemplate executes layout.html with the named page template.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	organizer := middleware.IsOrganizer(r.Context())
	funcMap := template.FuncMap{
		"isOrganizer": func() bool { return organizer },
		"authEnabled": func() bool { return len(app.TokenHash) > 0 },
		"csrfToken":   func() string { return csrf.Token(r) },
		"formatDate":  ledger.FormatDate,
		"money":       func(d decimal.Decimal) string { return d.StringFixed(2) },
		"timeSlots":   ledger.TimeSlots,
		"courts": func() []int {
			s := make([]int, app.Rules.MaxCourts)
			for i := range s {
				s[i] = i + 1
			}
			return s
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("render_failed", "template", templateName, "error", err.Error())
	}
}
