package catalog

import (
	"fmt"
	"strings"

	"curator-lite/config"
)

// Flavor is an auction theme that biases which car tiers show up.
type Flavor byte

const (
	FlavorNone     Flavor = 0
	FlavorExotics  Flavor = 1
	FlavorHeritage Flavor = 2
	FlavorJDM      Flavor = 3
)

var FlavorDictionary = map[Flavor]string{
	FlavorNone:     "none",
	FlavorExotics:  "exotics",
	FlavorHeritage: "heritage",
	FlavorJDM:      "jdm",
}

func (f Flavor) String() string {
	if name, ok := FlavorDictionary[f]; ok {
		return name
	}
	return fmt.Sprintf("flavor(%d)", byte(f))
}

func (f Flavor) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Flavor) UnmarshalText(b []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(b)))
	if raw == "" {
		*f = FlavorNone
		return nil
	}
	for flavor, name := range FlavorDictionary {
		if name == raw {
			*f = flavor
			return nil
		}
	}
	return fmt.Errorf("unknown auction flavor %q", raw)
}

// FlavorForTags resolves the bias implied by a set of guaranteed tags.
// The first rule that matches any tag wins: Exotic/European, then
// Classic/Muscle, then JDM.
func FlavorForTags(tags []Tag) Flavor {
	switch {
	case containsTag(tags, TagExotic) || containsTag(tags, TagEuropean):
		return FlavorExotics
	case containsTag(tags, TagClassic) || containsTag(tags, TagMuscle):
		return FlavorHeritage
	case containsTag(tags, TagJDM):
		return FlavorJDM
	default:
		return FlavorNone
	}
}

// Multipliers returns the tier-weight multipliers for f.
func (f Flavor) Multipliers(t config.CarDrawTuning) config.TierWeights {
	switch f {
	case FlavorExotics:
		return t.Exotics
	case FlavorHeritage:
		return t.Heritage
	case FlavorJDM:
		return t.JDM
	default:
		return config.Neutral()
	}
}
