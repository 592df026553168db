package render

import (
	"context"

	"CapoWatch/internal/model"
	"CapoWatch/internal/tier"
)

// CardRequest is the structured payload for a sale card image.
type CardRequest struct {
	AssetName string `json:"asset_name"`
	Price     string `json:"price"`
	Symbol    string `json:"symbol"`
	BuyerTier string `json:"buyer_tier"`
	Narrative string `json:"narrative"`
}

// Renderer produces an image buffer for a sale card. Rendering is optional:
// when it is unavailable or fails, posts go out text-only.
type Renderer interface {
	RenderCard(ctx context.Context, req CardRequest) ([]byte, error)
	// Available reports whether the render backend is reachable (selftest).
	Available(ctx context.Context) bool
}

// NewCardRequest builds the render payload from a classified sale.
func NewCardRequest(e model.SaleEvent, buyer tier.Tier, narrative tier.Narrative) CardRequest {
	return CardRequest{
		AssetName: e.AssetName,
		Price:     e.Payment.Display().String(),
		Symbol:    e.Payment.Symbol,
		BuyerTier: buyer.Name,
		Narrative: string(narrative),
	}
}
