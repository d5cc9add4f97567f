package catalog

import "curator-lite/config"

// Location is an auction venue on the map.
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Flavor Flavor `json:"flavor,omitempty"`
	// TierMultipliers is applied on top of the flavor bias; nil means neutral.
	TierMultipliers *config.TierWeights `json:"tierMultipliers,omitempty"`
}

// Bias combines the venue's flavor and its own multipliers.
func (l Location) Bias(t config.CarDrawTuning) config.TierWeights {
	bias := l.Flavor.Multipliers(t)
	if l.TierMultipliers != nil {
		bias = bias.Mul(*l.TierMultipliers)
	}
	return bias
}
