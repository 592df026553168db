package tier

// Tier is a rank bucket assigned from an address's NFT holding count.
type Tier struct {
	Name     string
	Rank     int
	MinCount int
}

// Tiers defines the 7-level hierarchy, lowest first. MinCount thresholds are
// strictly increasing; classification picks the highest tier whose threshold
// the holding count meets.
var Tiers = []Tier{
	{Name: "associate", Rank: 1, MinCount: 0},
	{Name: "soldier", Rank: 2, MinCount: 5},
	{Name: "caporegime", Rank: 3, MinCount: 10},
	{Name: "consigliere", Rank: 4, MinCount: 15},
	{Name: "underboss", Rank: 5, MinCount: 20},
	{Name: "godfather", Rank: 6, MinCount: 25},
	{Name: "commission", Rank: 7, MinCount: 100},
}

// Classify maps a holding count to its tier. Total: zero or negative counts
// map to the lowest tier.
func Classify(count int) Tier {
	result := Tiers[0]
	for _, t := range Tiers {
		if count >= t.MinCount {
			result = t
		}
	}
	return result
}

// Narrative is the power-shift label derived from a trade's tier gap.
type Narrative string

const (
	EmpireFalls     Narrative = "empire_falls"
	Consolidation   Narrative = "consolidation"
	BusinessAsUsual Narrative = "business_as_usual"
)

// ClassifyNarrative derives the narrative from the signed rank difference
// between seller and buyer. Adjacent-tier trades (|delta| <= 1) are ordinary.
func ClassifyNarrative(buyer, seller Tier) Narrative {
	delta := seller.Rank - buyer.Rank
	switch {
	case delta > 1:
		return EmpireFalls
	case delta < -1:
		return Consolidation
	default:
		return BusinessAsUsual
	}
}
