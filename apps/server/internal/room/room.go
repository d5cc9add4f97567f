package room

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"curator-lite/apps/server/internal/codec"
	"curator-lite/apps/server/internal/ledger"
	"curator-lite/auction"
	"curator-lite/encounter"
	"curator-lite/replay"
)

// Room runs one live auction for one connection with an actor model.
type Room struct {
	ID     string
	ConnID string

	mu       sync.RWMutex
	auction  *auction.Auction
	enc      encounter.RoutedEncounter
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	serverSeq  uint64
	lastActive time.Time

	send     func(data []byte)
	ledger   ledger.Service
	tape     []ledger.EventItem
	recorded bool
}

type EventType int

const (
	EventAct EventType = iota
	EventSnapshot
	EventLeave
)

// Event is a message to the room actor.
type Event struct {
	Type      EventType
	Action    auction.Action
	Timestamp time.Time
	Response  chan error
}

var ErrRoomClosed = errors.New("room closed")

const recordTimeout = 5 * time.Second

// New opens the auction for enc and starts the actor. The opening snapshot,
// auction start and first prompt are sent before New returns.
func New(connID string, enc encounter.RoutedEncounter, cfg auction.Config, player auction.Player, sendFn func([]byte), ledgerService ledger.Service) (*Room, error) {
	a, err := auction.New(cfg, enc.Car, enc.Rivals, player)
	if err != nil {
		return nil, err
	}
	r := &Room{
		ID:         a.ID(),
		ConnID:     connID,
		auction:    a,
		enc:        enc,
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
		lastActive: time.Now(),
		send:       sendFn,
		ledger:     ledgerService,
	}

	r.sendEnvelope(codec.ServerSnapshot, a.Snapshot())
	if err := a.Start(); err != nil {
		return nil, err
	}
	for _, ev := range a.Events() {
		r.sendEnvelope(replay.EventKind(ev.Type), ev)
	}
	r.sendPrompt()

	go r.run()

	log.Printf("[Room %s] Opened %s at %s (rivals=%d, conn=%s)", r.ID, enc.Car.ID, enc.LocationID, len(enc.Rivals), connID)
	return r, nil
}

func (r *Room) run() {
	for {
		select {
		case event := <-r.events:
			err := r.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-r.done:
			log.Printf("[Room %s] Actor stopped", r.ID)
			return
		}
	}
}

func (r *Room) handleEvent(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	r.lastActive = e.Timestamp

	switch e.Type {
	case EventAct:
		return r.handleAct(e.Action)
	case EventSnapshot:
		r.sendEnvelope(codec.ServerSnapshot, r.auction.Snapshot())
		return nil
	case EventLeave:
		return r.handleLeave()
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (r *Room) handleAct(action auction.Action) error {
	res, err := r.auction.Act(action)
	if err != nil {
		r.sendError(codec.ErrCodeRejected, replay.ActErrorReason(err), err.Error())
		return err
	}
	r.sendTurn(res)
	return nil
}

// handleLeave withdraws the player from an open auction.
func (r *Room) handleLeave() error {
	if r.auction.Snapshot().State != auction.StateInProgress {
		return nil
	}
	res, err := r.auction.Act(auction.Action{Type: auction.ActionTypeWithdraw})
	if err != nil {
		log.Printf("[Room %s] withdraw on leave failed: %v", r.ID, err)
		return err
	}
	r.sendTurn(res)
	return nil
}

func (r *Room) sendTurn(res *auction.TurnResult) {
	for _, ev := range res.Events {
		r.sendEnvelope(replay.EventKind(ev.Type), ev)
	}
	if res.Ended() {
		r.sendEnvelope(codec.ServerSettlement, res.Settlement)
		r.recordLocked(*res.Settlement)
		return
	}
	r.sendPrompt()
}

// SubmitEvent sends an event to the actor and waits for its outcome.
func (r *Room) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Act(action auction.Action) error {
	return r.SubmitEvent(Event{Type: EventAct, Action: action})
}

func (r *Room) RequestSnapshot() error {
	return r.SubmitEvent(Event{Type: EventSnapshot})
}

// Leave settles an open auction as a withdrawal and stops the room.
func (r *Room) Leave() error {
	err := r.SubmitEvent(Event{Type: EventLeave})
	r.Stop()
	return err
}

// Stop shuts down the room actor.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Room) stopLocked() {
	r.closed = true
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

// IsIdleFor reports whether the room is closed or has seen no event for ttl.
func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return true
	}
	return time.Since(r.lastActive) >= ttl
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Snapshot returns current auction state (thread-safe).
func (r *Room) Snapshot() auction.Snapshot {
	return r.auction.Snapshot()
}

// Tape returns a copy of every envelope sent so far.
func (r *Room) Tape() []ledger.EventItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ledger.EventItem(nil), r.tape...)
}

func (r *Room) nextSeq() uint64 {
	r.serverSeq++
	return r.serverSeq
}

func (r *Room) sendPrompt() {
	s := r.auction.Snapshot()
	if s.State != auction.StateInProgress {
		return
	}
	r.sendEnvelope(codec.ServerPrompt, replay.NewActionPrompt(s))
}

func (r *Room) sendError(code int32, reason, msg string) {
	r.sendEnvelope(codec.ServerError, codec.ErrorPayload{Code: code, Reason: reason, Message: msg})
}

func (r *Room) sendEnvelope(kind string, payload any) {
	env, data, err := codec.WrapServerEnvelope(r.ID, r.nextSeq(), kind, payload)
	if err != nil {
		log.Printf("[Room %s] failed to encode %s: %v", r.ID, kind, err)
		return
	}
	item := ledger.EventItem{
		Seq:         r.serverSeq,
		EventType:   kind,
		EnvelopeB64: base64.StdEncoding.EncodeToString(data),
	}
	if ts := codec.ServerTsMs(env); ts > 0 {
		item.ServerTsMs = &ts
	}
	r.tape = append(r.tape, item)
	if r.send != nil {
		r.send(data)
	}
}

func (r *Room) recordLocked(s auction.Settlement) {
	if r.ledger == nil || r.recorded {
		return
	}
	r.recorded = true
	rec := ledger.Record{
		SessionID: r.ID,
		Source:    ledger.SourceLive,
		CarID:     s.CarID,
		Outcome:   s.Outcome.String(),
		Winner:    s.Winner,
		Price:     s.Price,
		Turns:     s.Turns,
		PlayedAt:  time.Now().UTC(),
		Summary: map[string]any{
			"location_id": r.enc.LocationID,
			"rivals":      r.enc.RivalIDs(),
			"car_value":   r.enc.Car.BaseValue,
			"player_won":  s.PlayerWon(),
		},
		Events: append([]ledger.EventItem(nil), r.tape...),
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.ledger.RecordAuction(ctx, rec); err != nil {
		log.Printf("[Room %s] failed to record auction: %v", r.ID, err)
	}
}
