package rival

import (
	"math"

	"curator-lite/config"
)

// AI is the mutable bidding state of one rival for one auction session.
// Patience and budget only ever go down.
type AI struct {
	rival    Rival
	interest int
	tuning   config.RivalTuning

	patience int
	budget   int64
}

var _ Bidder = (*AI)(nil)

// NewAI scales the template's patience and budget by its mood.
func NewAI(rv Rival, interest int, tuning config.RivalTuning) *AI {
	mod := ModifierFor(rv.Mood, tuning.Moods)

	patience := int(math.Floor(float64(rv.Patience) * mod.Patience))
	if patience > tuning.MaxPatience {
		patience = tuning.MaxPatience
	}
	if patience < 0 {
		patience = 0
	}
	budget := int64(math.Floor(float64(rv.Budget) * mod.Budget))
	if budget < 0 {
		budget = 0
	}

	return &AI{
		rival:    rv.Clone(),
		interest: interest,
		tuning:   tuning,
		patience: patience,
		budget:   budget,
	}
}

// DecideBid decides whether to raise over currentBid. Fatigue is applied
// after a bid is decided, so the first check always sees full patience.
func (a *AI) DecideBid(currentBid int64) BidDecision {
	if currentBid > a.budget {
		return BidDecision{ShouldBid: false, BidAmount: 0, Reason: ReasonOutOfBudget}
	}
	if a.patience <= 0 {
		return BidDecision{ShouldBid: false, BidAmount: 0, Reason: ReasonLostPatience}
	}

	increment, decay, reason := a.strategyStep()
	if remaining := a.budget - currentBid; increment > remaining {
		increment = remaining
	}
	a.drainPatience(decay)

	return BidDecision{ShouldBid: true, BidAmount: increment, Reason: reason}
}

func (a *AI) highInterest() bool {
	return a.interest > a.tuning.HighInterestThreshold
}

func (a *AI) strategyStep() (increment int64, decay int, reason string) {
	t := a.tuning
	switch a.rival.Strategy {
	case StrategyAggressive:
		return t.AggressiveIncrement, t.AggressiveDecay, "Aggressive push"
	case StrategyPassive:
		return t.PassiveIncrement, t.PassiveDecay, "Cautious nudge"
	case StrategyCollector:
		if a.highInterest() {
			return t.CollectorHighIncrement, t.CollectorHighDecay, "Collector must have it"
		}
		return t.CollectorIncrement, t.CollectorDecay, "Collector interest"
	default:
		return t.PassiveIncrement, t.PassiveDecay, "Cautious nudge"
	}
}

// OnPlayerStall applies the stall penalty immediately.
func (a *AI) OnPlayerStall() {
	a.drainPatience(a.tuning.StallPenalty)
}

// OnPlayerPowerBid applies the power-bid penalty immediately.
func (a *AI) OnPlayerPowerBid() {
	a.drainPatience(a.tuning.PowerBidPenalty)
}

// OnPlayerKickTires shrinks the budget for the rest of the session.
func (a *AI) OnPlayerKickTires(amount int64) {
	if amount <= 0 {
		return
	}
	a.budget -= amount
	if a.budget < 0 {
		a.budget = 0
	}
}

// Eligible reports whether the rival can still take part at currentBid.
func (a *AI) Eligible(currentBid int64) bool {
	return a.patience > 0 && a.budget >= currentBid
}

func (a *AI) Patience() int { return a.patience }

func (a *AI) Budget() int64 { return a.budget }

func (a *AI) Interest() int { return a.interest }

func (a *AI) Rival() Rival { return a.rival.Clone() }

func (a *AI) drainPatience(n int) {
	if n <= 0 {
		return
	}
	a.patience -= n
	if a.patience < 0 {
		a.patience = 0
	}
}
