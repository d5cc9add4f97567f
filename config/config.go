package config

import (
	"fmt"
)

// Economy holds every tunable constant of the auction economy.
type Economy struct {
	Tiers      TierThresholds   `yaml:"tiers"`
	Interest   InterestTuning   `yaml:"interest"`
	Attendance AttendanceTuning `yaml:"attendance"`
	Rival      RivalTuning      `yaml:"rival"`
	Auction    AuctionTuning    `yaml:"auction"`
	CarDraw    CarDrawTuning    `yaml:"car_draw"`
}

// TierThresholds gates rival and car tiers by player prestige.
type TierThresholds struct {
	Tier2MaxPrestige int `yaml:"tier2_max_prestige"` // below: tier 3 only
	Tier1MinPrestige int `yaml:"tier1_min_prestige"` // at or above: tier 1 eligible
}

type InterestTuning struct {
	Base           int `yaml:"base"`
	PerMatchingTag int `yaml:"per_matching_tag"`
	Max            int `yaml:"max"`
}

type AttendanceTuning struct {
	MinChance      float64 `yaml:"min_chance"`
	MaxChance      float64 `yaml:"max_chance"`
	InterestFloor  int     `yaml:"interest_floor"`
	InterestSpan   int     `yaml:"interest_span"`
	MinAttendees   int     `yaml:"min_attendees"`
	MaxAttendees   int     `yaml:"max_attendees"`
	CandidateCount int     `yaml:"candidate_count"`
}

// MoodModifier scales a rival's base patience and budget for one day.
type MoodModifier struct {
	Patience float64 `yaml:"patience"`
	Budget   float64 `yaml:"budget"`
}

type MoodModifiers struct {
	Desperate MoodModifier `yaml:"desperate"`
	Cautious  MoodModifier `yaml:"cautious"`
	Confident MoodModifier `yaml:"confident"`
	Normal    MoodModifier `yaml:"normal"`
}

type RivalTuning struct {
	AggressiveIncrement    int64 `yaml:"aggressive_increment"`
	PassiveIncrement       int64 `yaml:"passive_increment"`
	CollectorIncrement     int64 `yaml:"collector_increment"`
	CollectorHighIncrement int64 `yaml:"collector_high_increment"`
	HighInterestThreshold  int   `yaml:"high_interest_threshold"`

	AggressiveDecay    int `yaml:"aggressive_decay"`
	PassiveDecay       int `yaml:"passive_decay"`
	CollectorDecay     int `yaml:"collector_decay"`
	CollectorHighDecay int `yaml:"collector_high_decay"`

	StallPenalty    int `yaml:"stall_penalty"`
	PowerBidPenalty int `yaml:"power_bid_penalty"`
	MaxPatience     int `yaml:"max_patience"`

	Moods MoodModifiers `yaml:"moods"`
}

type AuctionTuning struct {
	OpeningBidRatio    float64 `yaml:"opening_bid_ratio"`
	PlayerBidIncrement int64   `yaml:"player_bid_increment"`
	PowerBidIncrement  int64   `yaml:"power_bid_increment"`
	MaxStalls          int     `yaml:"max_stalls"`
	KickTiresMinEye    int     `yaml:"kick_tires_min_eye"`
	KickTiresBudgetCut int64   `yaml:"kick_tires_budget_cut"`
}

// TierWeights is indexed by car tier: daily driver, cult classic, icon, unicorn.
type TierWeights struct {
	DailyDriver float64 `yaml:"daily_driver" json:"dailyDriver"`
	CultClassic float64 `yaml:"cult_classic" json:"cultClassic"`
	Icon        float64 `yaml:"icon" json:"icon"`
	Unicorn     float64 `yaml:"unicorn" json:"unicorn"`
}

func (w TierWeights) Slice() []float64 {
	return []float64{w.DailyDriver, w.CultClassic, w.Icon, w.Unicorn}
}

// Mul multiplies two weight sets element-wise.
func (w TierWeights) Mul(o TierWeights) TierWeights {
	return TierWeights{
		DailyDriver: w.DailyDriver * o.DailyDriver,
		CultClassic: w.CultClassic * o.CultClassic,
		Icon:        w.Icon * o.Icon,
		Unicorn:     w.Unicorn * o.Unicorn,
	}
}

// Neutral is the identity multiplier.
func Neutral() TierWeights {
	return TierWeights{DailyDriver: 1, CultClassic: 1, Icon: 1, Unicorn: 1}
}

type CarDrawTuning struct {
	// Base weights per prestige band, using the same thresholds as rival tiers.
	Rookie     TierWeights `yaml:"rookie"`
	Dealer     TierWeights `yaml:"dealer"`
	Tastemaker TierWeights `yaml:"tastemaker"`

	// Flavor multipliers applied on top of the band weights.
	Exotics  TierWeights `yaml:"exotics"`
	Heritage TierWeights `yaml:"heritage"`
	JDM      TierWeights `yaml:"jdm"`
}

// Default returns the shipped balance.
func Default() Economy {
	return Economy{
		Tiers: TierThresholds{
			Tier2MaxPrestige: 50,
			Tier1MinPrestige: 150,
		},
		Interest: InterestTuning{
			Base:           50,
			PerMatchingTag: 15,
			Max:            100,
		},
		Attendance: AttendanceTuning{
			MinChance:      0.35,
			MaxChance:      0.85,
			InterestFloor:  35,
			InterestSpan:   65,
			MinAttendees:   2,
			MaxAttendees:   5,
			CandidateCount: 8,
		},
		Rival: RivalTuning{
			AggressiveIncrement:    500,
			PassiveIncrement:       100,
			CollectorIncrement:     250,
			CollectorHighIncrement: 500,
			HighInterestThreshold:  70,
			AggressiveDecay:        15,
			PassiveDecay:           5,
			CollectorDecay:         10,
			CollectorHighDecay:     5,
			StallPenalty:           20,
			PowerBidPenalty:        20,
			MaxPatience:            100,
			Moods: MoodModifiers{
				Desperate: MoodModifier{Patience: 0.7, Budget: 1.2},
				Cautious:  MoodModifier{Patience: 1.3, Budget: 0.8},
				Confident: MoodModifier{Patience: 1.0, Budget: 1.1},
				Normal:    MoodModifier{Patience: 1.0, Budget: 1.0},
			},
		},
		Auction: AuctionTuning{
			OpeningBidRatio:    0.5,
			PlayerBidIncrement: 100,
			PowerBidIncrement:  500,
			MaxStalls:          3,
			KickTiresMinEye:    2,
			KickTiresBudgetCut: 500,
		},
		CarDraw: CarDrawTuning{
			Rookie:     TierWeights{DailyDriver: 60, CultClassic: 30, Icon: 9, Unicorn: 1},
			Dealer:     TierWeights{DailyDriver: 40, CultClassic: 35, Icon: 20, Unicorn: 5},
			Tastemaker: TierWeights{DailyDriver: 20, CultClassic: 30, Icon: 35, Unicorn: 15},
			Exotics:    TierWeights{DailyDriver: 0.5, CultClassic: 1.0, Icon: 1.5, Unicorn: 2.0},
			Heritage:   TierWeights{DailyDriver: 0.8, CultClassic: 1.5, Icon: 1.2, Unicorn: 1.0},
			JDM:        TierWeights{DailyDriver: 1.0, CultClassic: 1.5, Icon: 1.2, Unicorn: 0.8},
		},
	}
}

// Validate rejects balance files that would make the engine misbehave.
func (e Economy) Validate() error {
	if e.Tiers.Tier2MaxPrestige < 0 || e.Tiers.Tier1MinPrestige < e.Tiers.Tier2MaxPrestige {
		return fmt.Errorf("invalid tier thresholds: tier2_max=%d tier1_min=%d",
			e.Tiers.Tier2MaxPrestige, e.Tiers.Tier1MinPrestige)
	}
	if e.Interest.Base < 0 || e.Interest.PerMatchingTag < 0 || e.Interest.Max < e.Interest.Base {
		return fmt.Errorf("invalid interest tuning: base=%d per_tag=%d max=%d",
			e.Interest.Base, e.Interest.PerMatchingTag, e.Interest.Max)
	}
	a := e.Attendance
	if a.MinChance < 0 || a.MaxChance > 1 || a.MinChance > a.MaxChance {
		return fmt.Errorf("invalid attendance chances: min=%v max=%v", a.MinChance, a.MaxChance)
	}
	if a.InterestSpan <= 0 {
		return fmt.Errorf("attendance interest_span must be > 0")
	}
	if a.MinAttendees < 0 || a.MaxAttendees <= 0 || a.MinAttendees > a.MaxAttendees {
		return fmt.Errorf("invalid attendee bounds: min=%d max=%d", a.MinAttendees, a.MaxAttendees)
	}
	if a.CandidateCount <= 0 {
		return fmt.Errorf("attendance candidate_count must be > 0")
	}
	r := e.Rival
	if r.AggressiveIncrement < 0 || r.PassiveIncrement < 0 || r.CollectorIncrement < 0 || r.CollectorHighIncrement < 0 {
		return fmt.Errorf("rival increments must be >= 0")
	}
	if r.AggressiveDecay < 0 || r.PassiveDecay < 0 || r.CollectorDecay < 0 || r.CollectorHighDecay < 0 {
		return fmt.Errorf("rival patience decays must be >= 0")
	}
	if r.StallPenalty < 0 || r.PowerBidPenalty < 0 {
		return fmt.Errorf("rival patience penalties must be >= 0")
	}
	if r.MaxPatience <= 0 {
		return fmt.Errorf("rival max_patience must be > 0")
	}
	for name, m := range map[string]MoodModifier{
		"desperate": r.Moods.Desperate,
		"cautious":  r.Moods.Cautious,
		"confident": r.Moods.Confident,
		"normal":    r.Moods.Normal,
	} {
		if m.Patience < 0 || m.Budget < 0 {
			return fmt.Errorf("mood %s multipliers must be >= 0", name)
		}
	}
	au := e.Auction
	if au.OpeningBidRatio < 0 {
		return fmt.Errorf("auction opening_bid_ratio must be >= 0")
	}
	if au.PlayerBidIncrement <= 0 || au.PowerBidIncrement <= 0 {
		return fmt.Errorf("auction bid increments must be > 0")
	}
	if au.MaxStalls < 0 || au.KickTiresMinEye < 0 || au.KickTiresBudgetCut < 0 {
		return fmt.Errorf("auction stall/kick-tires tuning must be >= 0")
	}
	return nil
}
