package marketplace

import (
	"context"

	"github.com/shopspring/decimal"

	"CapoWatch/internal/model"
)

// FloorQuote is the collection's current floor listing price.
type FloorQuote struct {
	Price  decimal.Decimal
	Symbol string
}

// Client defines the marketplace operations the pipeline consumes. The
// marketplace is eventually consistent and occasionally rate-limited; callers
// must tolerate both missing recent writes and outright failures.
type Client interface {
	// RecentSales returns up to limit of the most recent sale-type events for
	// the collection. Ordering is whatever the marketplace provides; there is
	// no reliable server-side "since" filter.
	RecentSales(ctx context.Context, limit int) ([]model.SaleEvent, error)
	// HoldingCount returns the number of collection NFTs currently held by
	// the address.
	HoldingCount(ctx context.Context, address string) (int, error)
	// Floor returns the collection's current floor price.
	Floor(ctx context.Context) (FloorQuote, error)
	Name() string
}
