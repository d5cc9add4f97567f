package catalog

import (
	"fmt"
	"strings"
)

// CarTier classifies cars by rarity. TierNone means the content table left it
// out and EffectiveTier derives one from the value.
type CarTier byte

const (
	TierNone        CarTier = 0
	TierDailyDriver CarTier = 1
	TierCultClassic CarTier = 2
	TierIcon        CarTier = 3
	TierUnicorn     CarTier = 4
)

var CarTierDictionary = map[CarTier]string{
	TierNone:        "none",
	TierDailyDriver: "daily_driver",
	TierCultClassic: "cult_classic",
	TierIcon:        "icon",
	TierUnicorn:     "unicorn",
}

// AllTiers lists draw-eligible tiers in weight order.
var AllTiers = []CarTier{TierDailyDriver, TierCultClassic, TierIcon, TierUnicorn}

// Value thresholds used when a car has no explicit tier.
const (
	cultClassicMinValue int64 = 20_000
	iconMinValue        int64 = 60_000
	unicornMinValue     int64 = 250_000
)

func (t CarTier) String() string {
	if name, ok := CarTierDictionary[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", byte(t))
}

func (t CarTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *CarTier) UnmarshalText(b []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(b)))
	if raw == "" {
		*t = TierNone
		return nil
	}
	for tier, name := range CarTierDictionary {
		if name == raw {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown car tier %q", raw)
}

// Car is a collectible car record. Condition is 0–100.
type Car struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	BaseValue int64    `json:"baseValue"`
	Condition int      `json:"condition"`
	Tags      []Tag    `json:"tags"`
	History   []string `json:"history,omitempty"`
	Tier      CarTier  `json:"tier,omitempty"`
}

// Clone returns a deep copy so callers never alias catalog slices.
func (c Car) Clone() Car {
	out := c
	out.Tags = append([]Tag(nil), c.Tags...)
	if c.History != nil {
		out.History = append([]string(nil), c.History...)
	}
	return out
}

// EffectiveTier returns Tier, or a value-derived tier when unset.
func (c Car) EffectiveTier() CarTier {
	if c.Tier != TierNone {
		return c.Tier
	}
	switch {
	case c.BaseValue >= unicornMinValue:
		return TierUnicorn
	case c.BaseValue >= iconMinValue:
		return TierIcon
	case c.BaseValue >= cultClassicMinValue:
		return TierCultClassic
	default:
		return TierDailyDriver
	}
}

func (c Car) HasTag(tag Tag) bool {
	return containsTag(c.Tags, tag)
}

// HasAnyTag reports whether the car carries at least one of tags.
func (c Car) HasAnyTag(tags []Tag) bool {
	for _, t := range tags {
		if c.HasTag(t) {
			return true
		}
	}
	return false
}

func (c Car) String() string {
	return fmt.Sprintf("%s(%s, $%d, %s)", c.Name, c.ID, c.BaseValue, c.EffectiveTier())
}
