package rank

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/retry"
	"CapoWatch/internal/tier"
)

// Resolver maps addresses to tiers via their current holding count.
type Resolver struct {
	client    marketplace.Client
	attempts  int
	baseDelay time.Duration
}

// NewResolver creates a Resolver. attempts/baseDelay bound the retry loop
// around the marketplace call.
func NewResolver(client marketplace.Client, attempts int, baseDelay time.Duration) *Resolver {
	return &Resolver{client: client, attempts: attempts, baseDelay: baseDelay}
}

// BuyerCount resolves a buyer's holding count, floored at 1: a brand-new
// buyer owns at least the just-purchased asset even when the indexer lags
// behind the sale. Lookup failure degrades to the floor.
func (r *Resolver) BuyerCount(ctx context.Context, address string) int {
	count, err := r.count(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("buyer holding count unavailable, using floor")
		return 1
	}
	if count < 1 {
		return 1
	}
	return count
}

// SellerCount resolves a seller's holding count with no floor: a seller may
// have fully exited the collection. Lookup failure degrades to 0.
func (r *Resolver) SellerCount(ctx context.Context, address string) int {
	count, err := r.count(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("seller holding count unavailable, using zero")
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

// BuyerTier classifies the buyer's tier from their resolved holding count.
func (r *Resolver) BuyerTier(ctx context.Context, address string) tier.Tier {
	return tier.Classify(r.BuyerCount(ctx, address))
}

// SellerTier classifies the seller's tier. An empty address (mint or unknown
// counterparty) classifies as the lowest tier.
func (r *Resolver) SellerTier(ctx context.Context, address string) tier.Tier {
	if address == "" {
		return tier.Classify(0)
	}
	return tier.Classify(r.SellerCount(ctx, address))
}

func (r *Resolver) count(ctx context.Context, address string) (int, error) {
	return retry.Do(ctx, "holding-count", r.attempts, r.baseDelay, func() (int, error) {
		return r.client.HoldingCount(ctx, address)
	})
}
