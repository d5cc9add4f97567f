package auction

import (
	"fmt"

	"curator-lite/auction/rival"
)

type EventType byte

const (
	EventTypeStarted       EventType = 1
	EventTypePlayerAction  EventType = 2
	EventTypeRivalDecision EventType = 3
	EventTypeEnded         EventType = 4
)

var EventTypeDictionary = map[EventType]string{
	EventTypeStarted:       "started",
	EventTypePlayerAction:  "player_action",
	EventTypeRivalDecision: "rival_decision",
	EventTypeEnded:         "ended",
}

func (t EventType) String() string {
	if name, ok := EventTypeDictionary[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", byte(t))
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one observable step of a session. Bid is the current auction
// bid after the step; HighBidder is who holds it.
type Event struct {
	Seq        int        `json:"seq"`
	Turn       int        `json:"turn"`
	Type       EventType  `json:"type"`
	Actor      string     `json:"actor,omitempty"`
	Action     ActionType `json:"action,omitempty"`
	Target     string     `json:"target,omitempty"`
	ShouldBid  bool       `json:"shouldBid,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Bid        int64      `json:"bid"`
	HighBidder string     `json:"highBidder,omitempty"`
	State      State      `json:"state"`
}

// EventHook observes events in order, on the goroutine that caused them.
// It must not call back into the auction.
type EventHook func(Event)

// RivalDecision is one rival's answer within a turn.
type RivalDecision struct {
	RivalID  string            `json:"rivalId"`
	Name     string            `json:"name"`
	Decision rival.BidDecision `json:"decision"`
	// TookLead is set when the decision moved the high bid to this rival.
	TookLead bool  `json:"tookLead"`
	BidAfter int64 `json:"bidAfter"`
}

// TurnResult is everything one Act produced, in order.
type TurnResult struct {
	Turn       int             `json:"turn"`
	Action     Action          `json:"action"`
	Decisions  []RivalDecision `json:"decisions"`
	CurrentBid int64           `json:"currentBid"`
	HighBidder string          `json:"highBidder,omitempty"`
	State      State           `json:"state"`
	Outcome    State           `json:"outcome,omitempty"`
	Settlement *Settlement     `json:"settlement,omitempty"`
	Events     []Event         `json:"events"`
}

// Ended reports whether this turn closed the session.
func (r *TurnResult) Ended() bool { return r.Settlement != nil }
