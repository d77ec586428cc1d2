package ledger

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

type referenceChecker interface {
	ExistsByReference(ctx context.Context, externalReference string) (bool, error)
}

// ProcessedCache is an optional fast path in front of the transactions table.
type ProcessedCache interface {
	Seen(ctx context.Context, externalReference string) (bool, error)
	Mark(ctx context.Context, externalReference string) error
}

// Guard answers whether an external payment has already been credited. It
// only saves work: the unique constraint on external_reference is what
// actually prevents a second credit.
type Guard struct {
	transactions referenceChecker
	cache        ProcessedCache
}

// NewGuard builds a Guard. cache may be nil.
func NewGuard(transactions referenceChecker, cache ProcessedCache) *Guard {
	return &Guard{transactions: transactions, cache: cache}
}

func (g *Guard) AlreadyProcessed(ctx context.Context, externalReference string) (bool, error) {
	log := logging.FromContext(ctx)

	if g.cache != nil {
		seen, err := g.cache.Seen(ctx, externalReference)
		if err != nil {
			log.Warn("processed cache lookup failed, falling back to database", "error", err)
		} else if seen {
			return true, nil
		}
	}

	exists, err := g.transactions.ExistsByReference(ctx, externalReference)
	if err != nil {
		return false, fmt.Errorf("AlreadyProcessed: %w", err)
	}

	if exists {
		g.Remember(ctx, externalReference)
	}
	return exists, nil
}

// Remember records a committed reference in the cache. Failures are logged
// and otherwise ignored.
func (g *Guard) Remember(ctx context.Context, externalReference string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Mark(ctx, externalReference); err != nil {
		logging.FromContext(ctx).Warn("processed cache write failed", "error", err, "external_reference", externalReference)
	}
}
