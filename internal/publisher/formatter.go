package publisher

import (
	"fmt"
	"strings"

	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/tier"
)

// headlines per narrative, in the family's voice.
var headlines = map[tier.Narrative]string{
	tier.EmpireFalls:     "🩸 THE EMPIRE FALLS",
	tier.Consolidation:   "👑 THE FAMILY CONSOLIDATES",
	tier.BusinessAsUsual: "🤝 BUSINESS AS USUAL",
}

// FormatSalePost builds the post text for one classified sale.
func FormatSalePost(e model.SaleEvent, buyer, seller tier.Tier, narrative tier.Narrative) string {
	var b strings.Builder

	b.WriteString(headlines[narrative])
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s just changed hands for %s %s\n\n",
		e.AssetName, e.Payment.Display().String(), e.Payment.Symbol))
	b.WriteString(fmt.Sprintf("Buyer: %s (%s)\n", shortAddress(e.Buyer), strings.ToUpper(buyer.Name)))
	if e.Seller != "" {
		b.WriteString(fmt.Sprintf("Seller: %s (%s)\n", shortAddress(e.Seller), strings.ToUpper(seller.Name)))
	}

	switch narrative {
	case tier.EmpireFalls:
		b.WriteString("\nA boss walks away. The streets take notice.")
	case tier.Consolidation:
		b.WriteString("\nAnother piece folded into the family's holdings.")
	}
	return b.String()
}

// FormatFloorPost builds the quiet-period floor price post.
func FormatFloorPost(quote marketplace.FloorQuote) string {
	return fmt.Sprintf("🕰️ Quiet on the streets.\n\nCurrent floor: %s %s\n\nThe family waits.",
		quote.Price.String(), quote.Symbol)
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
