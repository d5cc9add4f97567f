package catalog

import (
	"math/rand"

	"curator-lite/config"
)

// DrawOptions shapes a random car draw.
type DrawOptions struct {
	Prestige int
	// Bias multiplies the prestige band weights; nil is neutral.
	Bias *config.TierWeights
	// RequiredTags, when set, restricts the pick to cars carrying at least one of them.
	RequiredTags []Tag
}

// BandWeights returns the base tier weights for a prestige level, banded by
// the same thresholds that gate rival tiers.
func BandWeights(prestige int, econ config.Economy) config.TierWeights {
	switch {
	case prestige >= econ.Tiers.Tier1MinPrestige:
		return econ.CarDraw.Tastemaker
	case prestige >= econ.Tiers.Tier2MaxPrestige:
		return econ.CarDraw.Dealer
	default:
		return econ.CarDraw.Rookie
	}
}

// DrawTier picks a tier proportionally to weights. All-zero weights fall
// back to daily drivers.
func DrawTier(rng *rand.Rand, weights config.TierWeights) CarTier {
	ws := weights.Slice()
	total := 0.0
	for _, w := range ws {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return TierDailyDriver
	}
	roll := rng.Float64() * total
	for i, w := range ws {
		if w <= 0 {
			continue
		}
		if roll < w {
			return AllTiers[i]
		}
		roll -= w
	}
	return AllTiers[len(AllTiers)-1]
}

// Draw picks a random car. The tier is drawn first, then a car within it;
// when the tier has no car satisfying RequiredTags the pick widens to any
// matching car, then to the tier unfiltered, then to the whole table.
func (r *Registry) Draw(rng *rand.Rand, econ config.Economy, opts DrawOptions) (Car, bool) {
	weights := BandWeights(opts.Prestige, econ)
	if opts.Bias != nil {
		weights = weights.Mul(*opts.Bias)
	}
	tier := DrawTier(rng, weights)

	all := r.Cars()
	if len(all) == 0 {
		return Car{}, false
	}
	inTier := filterCars(all, func(c Car) bool { return c.EffectiveTier() == tier })

	pools := [][]Car{inTier}
	if len(opts.RequiredTags) > 0 {
		matches := func(c Car) bool { return c.HasAnyTag(opts.RequiredTags) }
		pools = [][]Car{
			filterCars(inTier, matches),
			filterCars(all, matches),
			inTier,
		}
	}
	pools = append(pools, all)

	for _, pool := range pools {
		if len(pool) > 0 {
			return pool[rng.Intn(len(pool))], true
		}
	}
	return Car{}, false
}

func filterCars(cars []Car, keep func(Car) bool) []Car {
	var out []Car
	for _, c := range cars {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
