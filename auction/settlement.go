package auction

// Settlement is the result of a closed session. Winner is PlayerBidderID, a
// rival ID, or empty when the car went unsold.
type Settlement struct {
	SessionID string `json:"sessionId"`
	CarID     string `json:"carId"`
	Outcome   State  `json:"outcome"`
	Winner    string `json:"winner,omitempty"`
	Price     int64  `json:"price"`
	Turns     int    `json:"turns"`
}

// PlayerWon reports whether the player takes the car home.
func (s Settlement) PlayerWon() bool { return s.Winner == PlayerBidderID }

// Sold reports whether anyone bought the car.
func (s Settlement) Sold() bool { return s.Winner != "" }

func (a *Auction) settleLocked(outcome State) *Settlement {
	s := &Settlement{
		SessionID: a.id,
		CarID:     a.car.ID,
		Outcome:   outcome,
		Turns:     a.turn,
	}
	switch outcome {
	case StatePlayerWon, StateAllRivalsExhausted:
		s.Winner = PlayerBidderID
		s.Price = a.currentBid
	case StatePlayerWithdrew:
		// a rival holding the bid takes the car at that price
		if a.highBidder != "" && a.highBidder != PlayerBidderID {
			s.Winner = a.highBidder
			s.Price = a.currentBid
		}
	}
	return s
}
