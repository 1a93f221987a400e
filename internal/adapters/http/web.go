package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"squashledger/internal/adapters/http/middleware"
	"squashledger/internal/adapters/http/perf"
	"squashledger/internal/application/orchestrators"
	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// LedgerView is the cached read model plus its shared generation.
type LedgerView interface {
	orchestrators.LedgerView
	Generation() uint64
}

// App holds everything the handlers need.
type App struct {
	Store     orchestrators.LedgerRowStore
	View      LedgerView
	Rules     ledger.Rules
	Format    summary.Format
	Location  *time.Location
	Notifier  orchestrators.Notifier // explicit sends; nil disables POST /api/summary/send
	Announcer orchestrators.Notifier // best-effort announcements after mutations; nil skips
	TokenHash []byte                 // bcrypt hash of the organizer token; empty leaves mutations open
	CSRFKey   []byte                 // 32 bytes; random when empty
	Sheet     string                 // export sheet name

	Deliveries *orchestrators.ResendDeliveryDeps // failed deliveries; nil disables /api/outbox
}

// ledgerDeps builds the orchestrator dependencies for one request.
func (a *App) ledgerDeps() orchestrators.LedgerDeps {
	return orchestrators.LedgerDeps{
		Store:    a.Store,
		View:     a.View,
		Rules:    a.Rules,
		Notifier: a.Announcer,
		Format:   a.Format,
	}
}

// now returns the current time in the group's timezone.
func (a *App) now() time.Time {
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	return timeNow().In(loc)
}

// Global app instance (set by NewMux)
var app *App

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// loadCSRFKey returns the configured key or a random one for this process.
func loadCSRFKey(key []byte) []byte {
	if len(key) == 32 {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate CSRF key: " + err.Error())
	}
	slog.Warn("csrf_key_random", "detail", "form tokens won't survive restart; set SQUASH_CSRF_KEY")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(a *App, collector *perf.Collector) http.Handler {
	app = a
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	if len(a.TokenHash) == 0 {
		slog.Warn("organizer_token_unset", "detail", "ledger changes are open to anyone who can reach the server")
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(loadCSRFKey(a.CSRFKey)),
		middleware.Auth(sessions, a.TokenHash),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, middleware.DefaultSlowRequest),
	)
}

// Warm loads the ledger once so the first page view is served from cache.
func Warm(ctx context.Context, a *App) error {
	_, err := a.View.Get(ctx)
	return err
}
