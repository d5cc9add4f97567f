package auction

import "curator-lite/auction/rival"

type RivalSnapshot struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Tier     int            `json:"tier"`
	Strategy rival.Strategy `json:"strategy"`
	Mood     rival.Mood     `json:"mood"`
	Avatar   string         `json:"avatar,omitempty"`
	Interest int            `json:"interest"`
	Patience int            `json:"patience"`
	Budget   int64          `json:"budget"`
	Eligible bool           `json:"eligible"`
	Kicked   bool           `json:"kicked"`
}

type Snapshot struct {
	ID         string          `json:"id"`
	CarID      string          `json:"carId"`
	State      State           `json:"state"`
	Outcome    State           `json:"outcome,omitempty"`
	Turn       int             `json:"turn"`
	OpeningBid int64           `json:"openingBid"`
	CurrentBid int64           `json:"currentBid"`
	HighBidder string          `json:"highBidder,omitempty"`
	StallsLeft int             `json:"stallsLeft"`
	Player     Player          `json:"player"`
	Rivals     []RivalSnapshot `json:"rivals"`
	Legal      []ActionType    `json:"legal,omitempty"`
	Settlement *Settlement     `json:"settlement,omitempty"`
}

func (a *Auction) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		ID:         a.id,
		CarID:      a.car.ID,
		State:      a.state,
		Outcome:    a.outcome,
		Turn:       a.turn,
		OpeningBid: a.openingBid,
		CurrentBid: a.currentBid,
		HighBidder: a.highBidder,
		StallsLeft: a.cfg.Tuning.MaxStalls - a.stalls,
		Player:     a.player,
		Legal:      a.legalActionsLocked(),
	}
	for _, st := range a.seats {
		rv := st.entry.Rival
		s.Rivals = append(s.Rivals, RivalSnapshot{
			ID:       rv.ID,
			Name:     rv.Name,
			Tier:     rv.Tier,
			Strategy: rv.Strategy,
			Mood:     rv.Mood,
			Avatar:   rv.Avatar,
			Interest: st.entry.Interest,
			Patience: st.patience,
			Budget:   st.budget,
			Eligible: st.eligible(a.currentBid),
			Kicked:   st.kicked,
		})
	}
	if a.settlement != nil {
		cp := *a.settlement
		s.Settlement = &cp
	}
	return s
}
