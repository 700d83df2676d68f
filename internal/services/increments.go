package services

import (
	"sort"
)

// IncrementTier sets the minimum increment for bids at or above Threshold.
type IncrementTier struct {
	Threshold float64 `mapstructure:"threshold"`
	Increment float64 `mapstructure:"increment"`
}

// IncrementPolicy resolves the smallest acceptable increment over the
// current highest bid. The default is a single whole-unit tier, so the
// minimum next bid is always currentHighestBid + 1.
type IncrementPolicy struct {
	tiers []IncrementTier
}

const defaultIncrement = 1.0

func NewIncrementPolicy(tiers []IncrementTier) *IncrementPolicy {
	if len(tiers) == 0 {
		tiers = []IncrementTier{{Threshold: 0, Increment: defaultIncrement}}
	}
	sorted := make([]IncrementTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})
	return &IncrementPolicy{tiers: sorted}
}

// Increment returns the required increment for a bid over amount.
func (p *IncrementPolicy) Increment(amount float64) float64 {
	increment := defaultIncrement
	for _, tier := range p.tiers {
		if amount >= tier.Threshold {
			increment = tier.Increment
		}
	}
	return increment
}
