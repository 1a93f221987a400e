package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"squashledger/internal/application/orchestrators"
	"squashledger/internal/domain/outbox"
)

// outboxEntryDTO is the wire form of a failed delivery.
type outboxEntryDTO struct {
	ID              string `json:"id"`
	Channel         string `json:"channel"`
	Text            string `json:"text"`
	Status          string `json:"status"`
	Attempts        int    `json:"attempts"`
	LastAttemptedAt string `json:"last_attempted_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	Error           string `json:"error,omitempty"`
}

func toOutboxEntryDTO(e outbox.Entry) outboxEntryDTO {
	dto := outboxEntryDTO{
		ID:        e.ID,
		Channel:   e.Channel,
		Text:      e.Text,
		Status:    e.Status,
		Attempts:  e.Attempts,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		Error:     e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		dto.LastAttemptedAt = e.LastAttemptedAt.Format(time.RFC3339)
	}
	return dto
}

// requireOutbox reports 503 when failed deliveries are not kept.
func requireOutbox(w http.ResponseWriter) bool {
	if app.Deliveries == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed deliveries are not recorded"})
		return false
	}
	return true
}

// parseLimit reads ?limit within [1, maxN], defaulting to def.
func parseLimit(r *http.Request, def, maxN int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= maxN {
		return n
	}
	return def
}

// handleOutbox handles GET /api/outbox?status=failed&limit=50.
// PRE: organizer
// POST: failed deliveries newest first; every status when status is empty
func handleOutbox(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !requireOrganizer(w, r) || !requireOutbox(w) {
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" && !containsString(outbox.Statuses, status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	entries, err := app.Deliveries.Store.ListByStatus(r.Context(), status, parseLimit(r, 50, 200))
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]outboxEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toOutboxEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

type outboxActionRequest struct {
	ID string `json:"id"`
}

// handleOutboxResend handles POST /api/outbox/resend.
// PRE: organizer; body {id}
// POST: one send on the entry's channel; the outcome is in status and error; 409 once resolved
func handleOutboxResend(w http.ResponseWriter, r *http.Request) {
	handleOutboxAction(w, r, orchestrators.ExecuteResendDelivery)
}

// handleOutboxDismiss handles POST /api/outbox/dismiss.
// PRE: organizer; body {id}
// POST: entry closed without sending
func handleOutboxDismiss(w http.ResponseWriter, r *http.Request) {
	handleOutboxAction(w, r, orchestrators.ExecuteDismissDelivery)
}

type outboxOperation func(ctx context.Context, id string, deps orchestrators.ResendDeliveryDeps) (outbox.Entry, error)

func handleOutboxAction(w http.ResponseWriter, r *http.Request, op outboxOperation) {
	if !requireMethod(w, r, http.MethodPost) || !requireOrganizer(w, r) || !requireOutbox(w) {
		return
	}
	var req outboxActionRequest
	if err := strictDecode(w, r, &req); err != nil || req.ID == "" {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	entry, err := op(r.Context(), req.ID, *app.Deliveries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutboxEntryDTO(entry))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
