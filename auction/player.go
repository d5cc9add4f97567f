package auction

// Player carries the stats the auction reads. Money caps the player's bids;
// Eye gates kicking tires.
type Player struct {
	ID    string `json:"id"`
	Money int64  `json:"money"`
	Eye   int    `json:"eye"`
}

func (p Player) CanAfford(bid int64) bool { return bid <= p.Money }
