package projections

import (
	"context"

	"squashledger/internal/domain/ledger"
)

// LedgerReader reads the normalized ledger through the cache.
type LedgerReader interface {
	Get(ctx context.Context) ([]ledger.Record, error)
}
