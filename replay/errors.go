package replay

import "fmt"

type ReplayError struct {
	StepIndex int32          `json:"step_index"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Expected  *ExpectedState `json:"expected,omitempty"`
}

type ExpectedState struct {
	State        string   `json:"state"`
	LegalActions []string `json:"legal_actions,omitempty"`
	CurrentBid   int64    `json:"current_bid"`
	HighBidder   string   `json:"high_bidder,omitempty"`
	StallsLeft   int      `json:"stalls_left"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
