package rival

import (
	"fmt"
	"strings"

	"curator-lite/catalog"
)

// Strategy is the bidding archetype of a rival.
type Strategy byte

const (
	StrategyAggressive Strategy = 0
	StrategyPassive    Strategy = 1
	StrategyCollector  Strategy = 2
)

var StrategyDictionary = map[Strategy]string{
	StrategyAggressive: "Aggressive",
	StrategyPassive:    "Passive",
	StrategyCollector:  "Collector",
}

func (s Strategy) String() string {
	if name, ok := StrategyDictionary[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", byte(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(b []byte) error {
	raw := strings.TrimSpace(string(b))
	for strategy, name := range StrategyDictionary {
		if strings.EqualFold(name, raw) {
			*s = strategy
			return nil
		}
	}
	return fmt.Errorf("unknown rival strategy %q", raw)
}

// Mood is a per-rival, per-day modifier bucket.
type Mood byte

const (
	MoodNormal    Mood = 0
	MoodDesperate Mood = 1
	MoodCautious  Mood = 2
	MoodConfident Mood = 3
)

var MoodDictionary = map[Mood]string{
	MoodNormal:    "Normal",
	MoodDesperate: "Desperate",
	MoodCautious:  "Cautious",
	MoodConfident: "Confident",
}

func (m Mood) String() string {
	if name, ok := MoodDictionary[m]; ok {
		return name
	}
	return fmt.Sprintf("mood(%d)", byte(m))
}

func (m Mood) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mood) UnmarshalText(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" {
		*m = MoodNormal
		return nil
	}
	for mood, name := range MoodDictionary {
		if strings.EqualFold(name, raw) {
			*m = mood
			return nil
		}
	}
	return fmt.Errorf("unknown rival mood %q", raw)
}

// Rival is a rival bidder template. Tier 1 is the late-game elite, 3 the
// early-game pool.
type Rival struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Tier     int           `json:"tier"`
	Budget   int64         `json:"budget"`
	Patience int           `json:"patience"` // 0–100
	Wishlist []catalog.Tag `json:"wishlist"`
	Strategy Strategy      `json:"strategy"`
	Mood     Mood          `json:"mood,omitempty"`
	Avatar   string        `json:"avatar,omitempty"`
}

// Clone returns a deep copy; templates are never handed out by reference.
func (r Rival) Clone() Rival {
	out := r
	out.Wishlist = append([]catalog.Tag(nil), r.Wishlist...)
	return out
}

func (r Rival) String() string {
	return fmt.Sprintf("%s(%s, tier %d, %s)", r.Name, r.ID, r.Tier, r.Strategy)
}
