package auction

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"curator-lite/auction/rival"
	"curator-lite/catalog"
)

type seat struct {
	entry  rival.AuctionRivalEntry
	ai     rival.Bidder
	kicked bool

	// last known state, kept after the AI is released
	patience int
	budget   int64
}

func (s *seat) id() string { return s.entry.Rival.ID }

func (s *seat) sync() {
	if s.ai != nil {
		s.patience = s.ai.Patience()
		s.budget = s.ai.Budget()
	}
}

func (s *seat) eligible(bid int64) bool {
	return s.ai != nil && s.ai.Eligible(bid)
}

// Auction is one bidding session over a single car.
type Auction struct {
	cfg Config
	id  string

	mu sync.Mutex

	car    catalog.Car
	player Player
	seats  []*seat
	byID   map[string]*seat

	state      State
	outcome    State
	turn       int
	openingBid int64
	currentBid int64
	highBidder string
	stalls     int
	seq        int
	events     []Event

	settlement *Settlement
}

// New builds a session with one AI engine per roster entry.
func New(cfg Config, car catalog.Car, roster []rival.AuctionRivalEntry, player Player) (*Auction, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if car.ID == "" {
		return nil, fmt.Errorf("car id required")
	}
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	a := &Auction{
		cfg:    cfg,
		id:     id,
		car:    car.Clone(),
		player: player,
		seats:  make([]*seat, 0, len(roster)),
		byID:   make(map[string]*seat, len(roster)),
		state:  StateNotStarted,
	}
	for _, e := range roster {
		rid := e.Rival.ID
		if rid == "" || rid == PlayerBidderID {
			return nil, fmt.Errorf("invalid rival id %q", rid)
		}
		if a.byID[rid] != nil {
			return nil, fmt.Errorf("rival %s listed twice", rid)
		}
		s := &seat{
			entry: rival.AuctionRivalEntry{Rival: e.Rival.Clone(), Interest: e.Interest},
			ai:    rival.NewAI(e.Rival, e.Interest, cfg.Rival),
		}
		s.sync()
		a.seats = append(a.seats, s)
		a.byID[rid] = s
	}
	return a, nil
}

func (a *Auction) ID() string { return a.id }

func (a *Auction) Car() catalog.Car { return a.car.Clone() }

// Start opens bidding at the car's opening price with no high bidder.
func (a *Auction) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateNotStarted {
		if a.state == StateClosed {
			return ErrAuctionClosed
		}
		return ErrAlreadyStarted
	}
	a.openingBid = int64(math.Floor(float64(a.car.BaseValue) * a.cfg.Tuning.OpeningBidRatio))
	a.currentBid = a.openingBid
	a.state = StateInProgress
	a.emitLocked(Event{Type: EventTypeStarted, Bid: a.currentBid, State: a.state})
	return nil
}

// Act applies one player action, then lets every eligible rival answer.
// The returned result carries all rival decisions of the turn in roster
// order; when it closes the session it also carries the settlement.
func (a *Auction) Act(action Action) (*TurnResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateNotStarted:
		return nil, ErrNotStarted
	case StateInProgress:
	default:
		return nil, ErrAuctionClosed
	}

	res := &TurnResult{Turn: a.turn + 1, Action: action}
	mark := a.seq

	if err := a.applyPlayerActionLocked(action); err != nil {
		return nil, err
	}
	a.turn++
	a.emitLocked(Event{
		Turn:       a.turn,
		Type:       EventTypePlayerAction,
		Actor:      PlayerBidderID,
		Action:     action.Type,
		Target:     action.Target,
		Bid:        a.currentBid,
		HighBidder: a.highBidder,
		State:      a.state,
	})

	if action.Type == ActionTypeWithdraw {
		a.closeLocked(StatePlayerWithdrew)
	} else {
		raised := a.rivalPassLocked(res)
		if !raised && a.highBidder == PlayerBidderID {
			if a.allRivalsIneligibleLocked() {
				a.closeLocked(StateAllRivalsExhausted)
			} else {
				a.closeLocked(StatePlayerWon)
			}
		}
	}

	res.CurrentBid = a.currentBid
	res.HighBidder = a.highBidder
	res.State = a.state
	res.Outcome = a.outcome
	res.Settlement = a.settlement
	res.Events = append([]Event(nil), a.events[mark:]...)
	return res, nil
}

func (a *Auction) applyPlayerActionLocked(action Action) error {
	t := a.cfg.Tuning
	switch action.Type {
	case ActionTypeBid, ActionTypePowerBid:
		if a.highBidder == PlayerBidderID {
			return ErrInvalidState("player already holds the high bid")
		}
		next := a.nextPlayerBidLocked(action.Type)
		if !a.player.CanAfford(next) {
			return ErrInsufficientFunds
		}
		a.currentBid = next
		a.highBidder = PlayerBidderID
		if action.Type == ActionTypePowerBid {
			for _, s := range a.seats {
				s.ai.OnPlayerPowerBid()
				s.sync()
			}
		}
	case ActionTypeStall:
		if a.stalls >= t.MaxStalls {
			return ErrStallLimit
		}
		a.stalls++
		for _, s := range a.seats {
			s.ai.OnPlayerStall()
			s.sync()
		}
	case ActionTypeKickTires:
		if a.player.Eye < t.KickTiresMinEye {
			return ErrSkillTooLow
		}
		s := a.byID[action.Target]
		if s == nil {
			return ErrUnknownRival
		}
		if s.kicked {
			return ErrAlreadyKicked
		}
		s.kicked = true
		s.ai.OnPlayerKickTires(t.KickTiresBudgetCut)
		s.sync()
	case ActionTypeWithdraw:
	default:
		return fmt.Errorf("invalid action %s", action.Type)
	}
	return nil
}

// nextPlayerBidLocked: a plain bid on an unclaimed lot takes the opening
// price as-is.
func (a *Auction) nextPlayerBidLocked(kind ActionType) int64 {
	if kind == ActionTypePowerBid {
		return a.currentBid + a.cfg.Tuning.PowerBidIncrement
	}
	if a.highBidder == "" {
		return a.currentBid
	}
	return a.currentBid + a.cfg.Tuning.PlayerBidIncrement
}

// rivalPassLocked asks each eligible rival once, in roster order. It reports
// whether any rival took the high bid.
func (a *Auction) rivalPassLocked(res *TurnResult) bool {
	raised := false
	for _, s := range a.seats {
		if s.id() == a.highBidder || !s.eligible(a.currentBid) {
			continue
		}
		d := s.ai.DecideBid(a.currentBid)
		s.sync()

		rd := RivalDecision{RivalID: s.id(), Name: s.entry.Rival.Name, Decision: d}
		if d.ShouldBid && (d.BidAmount > 0 || a.highBidder == "") {
			a.currentBid += d.BidAmount
			a.highBidder = s.id()
			rd.TookLead = true
			raised = true
		}
		rd.BidAfter = a.currentBid
		res.Decisions = append(res.Decisions, rd)

		a.emitLocked(Event{
			Turn:       a.turn,
			Type:       EventTypeRivalDecision,
			Actor:      s.id(),
			ShouldBid:  d.ShouldBid,
			Amount:     d.BidAmount,
			Reason:     d.Reason,
			Bid:        a.currentBid,
			HighBidder: a.highBidder,
			State:      a.state,
		})
	}
	return raised
}

func (a *Auction) allRivalsIneligibleLocked() bool {
	for _, s := range a.seats {
		if s.eligible(a.currentBid) {
			return false
		}
	}
	return true
}

// closeLocked records the outcome, settles, and releases every AI engine.
func (a *Auction) closeLocked(outcome State) {
	for _, s := range a.seats {
		s.sync()
		s.ai = nil
	}
	a.outcome = outcome
	a.settlement = a.settleLocked(outcome)
	a.state = StateClosed
	a.emitLocked(Event{
		Turn:       a.turn,
		Type:       EventTypeEnded,
		Actor:      a.settlement.Winner,
		Amount:     a.settlement.Price,
		Reason:     outcome.String(),
		Bid:        a.currentBid,
		HighBidder: a.highBidder,
		State:      a.state,
	})
}

func (a *Auction) emitLocked(ev Event) {
	a.seq++
	ev.Seq = a.seq
	a.events = append(a.events, ev)
	if a.cfg.Hook != nil {
		a.cfg.Hook(ev)
	}
}

// Events returns every event emitted so far.
func (a *Auction) Events() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Event(nil), a.events...)
}

// Settlement returns the result once the session has closed.
func (a *Auction) Settlement() (*Settlement, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.settlement == nil {
		return nil, false
	}
	s := *a.settlement
	return &s, true
}

// LegalActions is a pure projection of what the player may do now.
func (a *Auction) LegalActions() []ActionType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.legalActionsLocked()
}

func (a *Auction) legalActionsLocked() []ActionType {
	if a.state != StateInProgress {
		return nil
	}
	t := a.cfg.Tuning
	var acts []ActionType
	if a.highBidder != PlayerBidderID {
		if a.player.CanAfford(a.nextPlayerBidLocked(ActionTypeBid)) {
			acts = append(acts, ActionTypeBid)
		}
		if a.player.CanAfford(a.nextPlayerBidLocked(ActionTypePowerBid)) {
			acts = append(acts, ActionTypePowerBid)
		}
	}
	if a.stalls < t.MaxStalls {
		acts = append(acts, ActionTypeStall)
	}
	if a.player.Eye >= t.KickTiresMinEye {
		for _, s := range a.seats {
			if !s.kicked {
				acts = append(acts, ActionTypeKickTires)
				break
			}
		}
	}
	return append(acts, ActionTypeWithdraw)
}
