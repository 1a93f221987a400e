package ledgerview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	storage "squashledger/internal/adapters/storage/ledger"
	"squashledger/internal/domain/ledger"
)

// DefaultTTL bounds how long a snapshot is served without refetching.
const DefaultTTL = 60 * time.Second

// Source is the part of the row store the view reads from.
type Source interface {
	EnsureHeader(ctx context.Context) (bool, error)
	FetchAll(ctx context.Context) (storage.Table, error)
}

// Config tunes a View. Zero values select defaults.
type Config struct {
	TTL         time.Duration
	Generations GenerationSource // nil uses a LocalGeneration
	Now         func() time.Time
}

// View is the cached, normalized read model of the ledger. A snapshot is
// reused while its generation is current and its TTL has not elapsed. The
// mutex is held across the fetch so concurrent readers share one round trip.
type View struct {
	source Source
	gens   GenerationSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	records   []ledger.Record
	loadedGen uint64
	loadedAt  time.Time
	valid     bool
}

// New creates a View over source.
func New(source Source, cfg Config) *View {
	v := &View{
		source: source,
		gens:   cfg.Generations,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}
	if v.gens == nil {
		v.gens = &LocalGeneration{}
	}
	if v.ttl <= 0 {
		v.ttl = DefaultTTL
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

// Get returns the current record set, fetching only when the snapshot is
// missing, stale by generation, or past its TTL.
// PRE: none
// POST: Returns a copy; at most one EnsureHeader+FetchAll per generation within the TTL
func (v *View) Get(ctx context.Context) ([]ledger.Record, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	gen, err := v.gens.Current(ctx)
	if err != nil {
		// Without the shared counter only the TTL and local invalidation apply.
		slog.Warn("ledger_cache", "event", "generation_unavailable", "error", err)
		gen = v.loadedGen
	}
	if v.valid && gen == v.loadedGen && v.now().Sub(v.loadedAt) < v.ttl {
		return clone(v.records), nil
	}
	if err := v.load(ctx, gen); err != nil {
		return nil, err
	}
	return clone(v.records), nil
}

// Fresh drops the local snapshot and reads again. Row handles used for
// updates and deletes must come from here.
// PRE: none
// POST: Exactly one EnsureHeader+FetchAll was performed on success
func (v *View) Fresh(ctx context.Context) ([]ledger.Record, error) {
	v.mu.Lock()
	v.valid = false
	v.mu.Unlock()
	return v.Get(ctx)
}

// Invalidate discards the snapshot and bumps the generation so every view
// sharing the generation source refetches on its next read.
// PRE: none
// POST: The next Get performs a fetch
func (v *View) Invalidate(ctx context.Context) {
	v.mu.Lock()
	v.valid = false
	v.records = nil
	v.mu.Unlock()

	if _, err := v.gens.Bump(ctx); err != nil {
		slog.Warn("ledger_cache", "event", "generation_bump_failed", "error", err)
	}
}

// Generation returns the generation of the loaded snapshot.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadedGen
}

// load performs the round trip. Callers hold mu.
func (v *View) load(ctx context.Context, gen uint64) error {
	repaired, err := v.source.EnsureHeader(ctx)
	if err != nil {
		return fmt.Errorf("ensure ledger header: %w", err)
	}
	if repaired {
		slog.Info("ledger_cache", "event", "header_repaired")
	}
	table, err := v.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch ledger: %w", err)
	}
	v.records = ledger.Normalize(table.Header, table.Rows)
	v.loadedGen = gen
	v.loadedAt = v.now()
	v.valid = true
	slog.Debug("ledger_cache", "event", "ledger_loaded", "generation", gen, "records", len(v.records))
	return nil
}

func clone(records []ledger.Record) []ledger.Record {
	out := make([]ledger.Record, len(records))
	copy(out, records)
	return out
}
