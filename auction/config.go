package auction

import (
	"fmt"

	"curator-lite/config"
)

type Config struct {
	Tuning config.AuctionTuning
	Rival  config.RivalTuning

	// SessionID overrides the generated UUID (replays pin it).
	SessionID string

	// Hook, when set, observes every event synchronously.
	Hook EventHook
}

// ConfigFromEconomy builds a session config from the economy tables.
func ConfigFromEconomy(e config.Economy) Config {
	return Config{Tuning: e.Auction, Rival: e.Rival}
}

func (c Config) validate() error {
	t := c.Tuning
	if t.OpeningBidRatio < 0 {
		return fmt.Errorf("OpeningBidRatio must be >= 0")
	}
	if t.PlayerBidIncrement <= 0 || t.PowerBidIncrement <= 0 {
		return fmt.Errorf("invalid bid increments: bid=%d power=%d", t.PlayerBidIncrement, t.PowerBidIncrement)
	}
	if t.MaxStalls < 0 {
		return fmt.Errorf("MaxStalls must be >= 0")
	}
	if t.KickTiresBudgetCut < 0 {
		return fmt.Errorf("KickTiresBudgetCut must be >= 0")
	}
	if c.Rival.MaxPatience <= 0 {
		return fmt.Errorf("rival MaxPatience must be > 0")
	}
	return nil
}
