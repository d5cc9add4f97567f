package replay

import (
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"curator-lite/auction"
)

const tapeVersion = 1

// GenerateReplayTape runs the scripted session and records every envelope a
// client would have received. The same spec always yields the same tape.
func GenerateReplayTape(spec AuctionSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	cfg := auction.ConfigFromEconomy(ns.econ)
	cfg.SessionID = ns.sessionID
	a, err := auction.New(cfg, ns.car, ns.roster, ns.player)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}

	builder := newTapeBuilder(ns.sessionID)
	if err := builder.add("snapshot", a.Snapshot()); err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "start_failed", Message: err.Error()}
	}
	if err := builder.addEvents(a.Events()); err != nil {
		return nil, err
	}
	if err := builder.addPrompt(a); err != nil {
		return nil, err
	}

	for stepIdx, action := range ns.actions {
		before := a.Snapshot()
		if before.State != auction.StateInProgress {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "no_action_expected",
				Message:   "auction is already closed; no further actions are allowed",
				Expected:  expectedState(before),
			}
		}
		if !isLegalAction(before.Legal, action.Type) {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "illegal_action",
				Message:   fmt.Sprintf("action %s is not legal now", action.Type),
				Expected:  expectedState(before),
			}
		}

		res, err := a.Act(action)
		if err != nil {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    ActErrorReason(err),
				Message:   err.Error(),
				Expected:  expectedState(a.Snapshot()),
			}
		}
		if err := builder.addEvents(res.Events); err != nil {
			return nil, err
		}
		if res.Ended() {
			if err := builder.add("settlement", res.Settlement); err != nil {
				return nil, err
			}
			break
		}
		if err := builder.addPrompt(a); err != nil {
			return nil, err
		}
	}

	if err := builder.add("snapshot", a.Snapshot()); err != nil {
		return nil, err
	}
	return &ReplayTape{
		TapeVersion: tapeVersion,
		SessionID:   ns.sessionID,
		CarID:       ns.car.ID,
		Events:      builder.events,
	}, nil
}

func isLegalAction(legal []auction.ActionType, kind auction.ActionType) bool {
	for _, a := range legal {
		if a == kind {
			return true
		}
	}
	return false
}

func expectedState(s auction.Snapshot) *ExpectedState {
	return &ExpectedState{
		State:        s.State.String(),
		LegalActions: NewActionPrompt(s).Legal,
		CurrentBid:   s.CurrentBid,
		HighBidder:   s.HighBidder,
		StallsLeft:   s.StallsLeft,
	}
}

// ActErrorReason maps an engine rejection to a stable reason string.
func ActErrorReason(err error) string {
	switch {
	case errors.Is(err, auction.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, auction.ErrStallLimit):
		return "stall_limit"
	case errors.Is(err, auction.ErrSkillTooLow):
		return "skill_too_low"
	case errors.Is(err, auction.ErrUnknownRival):
		return "unknown_rival"
	case errors.Is(err, auction.ErrAlreadyKicked):
		return "already_kicked"
	default:
		return "action_apply_failed"
	}
}

var eventKinds = map[auction.EventType]string{
	auction.EventTypeStarted:       "auctionStart",
	auction.EventTypePlayerAction:  "playerAction",
	auction.EventTypeRivalDecision: "rivalDecision",
	auction.EventTypeEnded:         "auctionEnd",
}

// EventKind names an engine event the way tapes and live envelopes do.
func EventKind(t auction.EventType) string {
	if kind, ok := eventKinds[t]; ok {
		return kind
	}
	return t.String()
}

// ActionPrompt tells the player what it may do next.
type ActionPrompt struct {
	Turn       int      `json:"turn"`
	CurrentBid int64    `json:"currentBid"`
	HighBidder string   `json:"highBidder,omitempty"`
	StallsLeft int      `json:"stallsLeft"`
	Legal      []string `json:"legal"`
}

type tapeBuilder struct {
	sessionID string
	seq       uint64
	events    []ReplayEvent
}

func newTapeBuilder(sessionID string) *tapeBuilder {
	return &tapeBuilder{sessionID: sessionID}
}

func (b *tapeBuilder) addEvents(evs []auction.Event) error {
	for _, ev := range evs {
		if err := b.add(EventKind(ev.Type), ev); err != nil {
			return err
		}
	}
	return nil
}

func (b *tapeBuilder) addPrompt(a *auction.Auction) error {
	s := a.Snapshot()
	if s.State != auction.StateInProgress {
		return nil
	}
	return b.add("actionPrompt", NewActionPrompt(s))
}

func NewActionPrompt(s auction.Snapshot) ActionPrompt {
	legal := make([]string, 0, len(s.Legal))
	for _, a := range s.Legal {
		legal = append(legal, a.String())
	}
	return ActionPrompt{
		Turn:       s.Turn + 1,
		CurrentBid: s.CurrentBid,
		HighBidder: s.HighBidder,
		StallsLeft: s.StallsLeft,
		Legal:      legal,
	}
}

func (b *tapeBuilder) add(kind string, payload any) error {
	b.seq++
	env, err := NewEnvelope(kind, b.sessionID, b.seq, payload)
	if err != nil {
		return &ReplayError{StepIndex: -1, Reason: "envelope_build_failed", Message: err.Error()}
	}
	return b.push(kind, env)
}

func (b *tapeBuilder) push(kind string, env *structpb.Struct) error {
	raw, err := EncodeEnvelope(env)
	if err != nil {
		return &ReplayError{StepIndex: -1, Reason: "envelope_encode_failed", Message: err.Error()}
	}
	b.events = append(b.events, ReplayEvent{
		Type:        kind,
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: base64.StdEncoding.EncodeToString(raw),
	})
	return nil
}
