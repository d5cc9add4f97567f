package rival

// Decline reasons.
const (
	ReasonOutOfBudget  = "Out of budget"
	ReasonLostPatience = "Lost patience"
)

// BidDecision is one rival's answer for one turn. BidAmount is the raise on
// top of the current bid.
type BidDecision struct {
	ShouldBid bool   `json:"shouldBid"`
	BidAmount int64  `json:"bidAmount"`
	Reason    string `json:"reason"`
}

// IsMatch reports a bid that only matches the current price.
func (d BidDecision) IsMatch() bool {
	return d.ShouldBid && d.BidAmount == 0
}

// Bidder is the per-session engine the auction drives for each rival.
type Bidder interface {
	// DecideBid is called once per turn while the rival is eligible.
	DecideBid(currentBid int64) BidDecision
	OnPlayerStall()
	OnPlayerPowerBid()
	OnPlayerKickTires(amount int64)

	Eligible(currentBid int64) bool
	Patience() int
	Budget() int64
	Rival() Rival
}
