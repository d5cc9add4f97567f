package auction

import (
	"fmt"
	"strings"
)

// PlayerBidderID marks the player as high bidder; rivals use their own IDs.
const PlayerBidderID = "player"

// State 拍卖阶段
type State byte

const (
	StateNotStarted         State = 0
	StateInProgress         State = 1
	StatePlayerWon          State = 2
	StateAllRivalsExhausted State = 3
	StatePlayerWithdrew     State = 4
	StateClosed             State = 5
)

var StateDictionary = map[State]string{
	StateNotStarted:         "not_started",
	StateInProgress:         "in_progress",
	StatePlayerWon:          "player_won",
	StateAllRivalsExhausted: "all_rivals_exhausted",
	StatePlayerWithdrew:     "player_withdrew",
	StateClosed:             "closed",
}

func (s State) String() string {
	if name, ok := StateDictionary[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", byte(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	raw := strings.TrimSpace(string(b))
	for state, name := range StateDictionary {
		if name == raw {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown auction state %q", raw)
}

// Terminal reports whether s ends the session.
func (s State) Terminal() bool {
	switch s {
	case StatePlayerWon, StateAllRivalsExhausted, StatePlayerWithdrew, StateClosed:
		return true
	}
	return false
}

// ActionType 玩家动作：0-NONE 1-BID 2-POWER_BID 3-STALL 4-KICK_TIRES 5-WITHDRAW
type ActionType byte

const (
	ActionTypeNone      ActionType = 0
	ActionTypeBid       ActionType = 1
	ActionTypePowerBid  ActionType = 2
	ActionTypeStall     ActionType = 3
	ActionTypeKickTires ActionType = 4
	ActionTypeWithdraw  ActionType = 5
)

var ActionTypeDictionary = map[ActionType]string{
	ActionTypeNone:      "NONE",
	ActionTypeBid:       "BID",
	ActionTypePowerBid:  "POWER_BID",
	ActionTypeStall:     "STALL",
	ActionTypeKickTires: "KICK_TIRES",
	ActionTypeWithdraw:  "WITHDRAW",
}

func (a ActionType) String() string {
	if name, ok := ActionTypeDictionary[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", byte(a))
}

func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActionType) UnmarshalText(b []byte) error {
	parsed, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseActionType accepts dictionary names case-insensitively, with '-' or
// '_' separators ("power-bid", "POWER_BID", "kick_tires").
func ParseActionType(raw string) (ActionType, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))
	for action, name := range ActionTypeDictionary {
		if name == key && action != ActionTypeNone {
			return action, nil
		}
	}
	return ActionTypeNone, fmt.Errorf("unknown action %q", raw)
}

// Action is one player move. Target is the rival ID for KICK_TIRES.
type Action struct {
	Type   ActionType `json:"type"`
	Target string     `json:"target,omitempty"`
}

func (a Action) String() string {
	if a.Target != "" {
		return a.Type.String() + "(" + a.Target + ")"
	}
	return a.Type.String()
}
