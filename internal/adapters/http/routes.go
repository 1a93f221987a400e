package web

import "net/http"

// registerRoutes attaches every handler to mux.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", handleHealth)

	// JSON API
	mux.HandleFunc("/api/ledger", handleLedger)
	mux.HandleFunc("/api/attendance", handleAttendance)
	mux.HandleFunc("/api/expenses/court", handleCourtExpense)
	mux.HandleFunc("/api/expenses/other", handleOtherExpense)
	mux.HandleFunc("/api/collections", handleCollection)
	mux.HandleFunc("/api/payments", handlePayments)
	mux.HandleFunc("/api/bookings", handleBookings)
	mux.HandleFunc("/api/summary", handleSummary)
	mux.HandleFunc("/api/summary/send", handleSummarySend)
	mux.HandleFunc("/api/refresh", handleRefresh)
	mux.HandleFunc("/api/occurrences", handleOccurrences)
	mux.HandleFunc("/api/export.xlsx", handleExport)
	mux.HandleFunc("/api/perf", handlePerf)
	mux.HandleFunc("/api/outbox", handleOutbox)
	mux.HandleFunc("/api/outbox/resend", handleOutboxResend)
	mux.HandleFunc("/api/outbox/dismiss", handleOutboxDismiss)

	// Organizer UI
	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/ui/attendance", handleUIAttendance)
	mux.HandleFunc("/ui/court", handleUICourt)
	mux.HandleFunc("/ui/expense", handleUIExpense)
	mux.HandleFunc("/ui/collection", handleUICollection)
	mux.HandleFunc("/ui/rows", handleUIRows)
	mux.HandleFunc("/ui/send", handleUISend)
}
