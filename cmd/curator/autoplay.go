package main

import (
	"math"

	"curator-lite/auction"
)

// maxAutoTurns bounds a simulated session; the policy always terminates
// well before this.
const maxAutoTurns = 500

// autoPlayer is the simulated player: it kicks the leading rival's tires
// once when it can, bids while the next price stays under its ceiling, and
// walks away otherwise.
type autoPlayer struct {
	ceiling   int64
	increment int64
}

func newAutoPlayer(baseValue int64, ceilingRatio float64, increment int64) autoPlayer {
	return autoPlayer{
		ceiling:   int64(math.Floor(float64(baseValue) * ceilingRatio)),
		increment: increment,
	}
}

func (p autoPlayer) next(s auction.Snapshot) auction.Action {
	if s.Turn >= maxAutoTurns {
		return auction.Action{Type: auction.ActionTypeWithdraw}
	}
	if leader := s.HighBidder; leader != "" && leader != auction.PlayerBidderID && hasAction(s.Legal, auction.ActionTypeKickTires) {
		for _, r := range s.Rivals {
			if r.ID == leader && !r.Kicked {
				return auction.Action{Type: auction.ActionTypeKickTires, Target: leader}
			}
		}
	}
	if hasAction(s.Legal, auction.ActionTypeBid) {
		price := s.CurrentBid
		if s.HighBidder != "" {
			price += p.increment
		}
		if price <= p.ceiling {
			return auction.Action{Type: auction.ActionTypeBid}
		}
	}
	return auction.Action{Type: auction.ActionTypeWithdraw}
}

// play drives a started auction to its close and returns every turn.
func (p autoPlayer) play(a *auction.Auction) ([]*auction.TurnResult, error) {
	var turns []*auction.TurnResult
	for {
		s := a.Snapshot()
		if s.State != auction.StateInProgress {
			return turns, nil
		}
		res, err := a.Act(p.next(s))
		if err != nil {
			return turns, err
		}
		turns = append(turns, res)
	}
}

func hasAction(legal []auction.ActionType, kind auction.ActionType) bool {
	for _, a := range legal {
		if a == kind {
			return true
		}
	}
	return false
}
