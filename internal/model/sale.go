package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind is the marketplace event type string.
type EventKind string

const (
	KindSale    EventKind = "sale"
	KindListing EventKind = "listing"
	KindBid     EventKind = "bid"
)

// Payment is the price paid for a sale, in base units of the payment token.
type Payment struct {
	Amount   string `json:"amount"` // base units as a decimal string
	Decimals int32  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Display converts the base-unit amount into a human-readable token amount.
// Returns zero on an unparseable amount.
func (p Payment) Display() decimal.Decimal {
	d, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(-p.Decimals)
}

// IsZero reports whether the payment is absent or zero.
func (p Payment) IsZero() bool {
	return p.Display().IsZero()
}

// SaleEvent is one marketplace transaction as returned by the events API.
type SaleEvent struct {
	AssetID    string    `json:"asset_id"`
	AssetName  string    `json:"asset_name"`
	Buyer      string    `json:"buyer"`
	Seller     string    `json:"seller,omitempty"` // empty for mints / unknown counterparties
	Payment    Payment   `json:"payment"`
	OccurredAt time.Time `json:"occurred_at"`
	Kind       EventKind `json:"kind"`
	Quantity   int       `json:"quantity"`
}

// Valid reports whether the event is an actionable single-asset sale.
// Bundle sales (quantity > 1) and zero-payment transfers are dropped.
func (e SaleEvent) Valid() bool {
	if e.Kind != KindSale {
		return false
	}
	if e.Buyer == "" || e.AssetID == "" {
		return false
	}
	if e.Quantity != 1 {
		return false
	}
	return !e.Payment.IsZero()
}

// Key identifies an event within a batch for deduplication.
func (e SaleEvent) Key() string {
	return e.AssetID + "|" + e.Buyer + "|" + e.OccurredAt.UTC().Format(time.RFC3339)
}
