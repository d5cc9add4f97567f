package lobby

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"curator-lite/apps/server/internal/codec"
	"curator-lite/apps/server/internal/ledger"
	"curator-lite/apps/server/internal/room"
	"curator-lite/auction"
	"curator-lite/content"
	"curator-lite/encounter"
)

const (
	defaultLocationID = "downtown_warehouse"
	defaultMoney      = 50000
	defaultEye        = 1
)

var (
	ErrUnknownEvent = errors.New("unknown special event")
	ErrNoCar        = errors.New("no car could be drawn")
)

// Lobby routes encounters and owns every live room.
type Lobby struct {
	mu     sync.RWMutex
	rooms  map[string]*room.Room
	bundle *content.Bundle
	router *encounter.Router
	ledger ledger.Service
}

// New creates a lobby over one content bundle. seed 0 seeds from the clock.
func New(bundle *content.Bundle, ledgerService ledger.Service, seed int64) *Lobby {
	return &Lobby{
		rooms:  make(map[string]*room.Room),
		bundle: bundle,
		router: bundle.NewRouter(seed),
		ledger: ledgerService,
	}
}

// Open routes an encounter for req and seats connID in a fresh room.
func (l *Lobby) Open(connID string, req codec.OpenRequest, sendFn func([]byte)) (*room.Room, error) {
	req = normalizeOpenRequest(req)

	var (
		enc encounter.RoutedEncounter
		ok  bool
	)
	if req.EventID != "" {
		ev, found := l.bundle.Event(req.EventID)
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, req.EventID)
		}
		enc, ok = l.router.RouteSpecialEncounter(ev, req.LocationID, req.Prestige, req.Day)
	} else {
		enc, ok = l.router.RouteLocationEncounter(req.LocationID, req.Prestige, req.Day)
	}
	if !ok {
		return nil, ErrNoCar
	}

	player := auction.Player{ID: connID, Money: req.Money, Eye: req.Eye}
	r, err := room.New(connID, enc, auction.ConfigFromEconomy(l.bundle.Economy), player, sendFn, l.ledger)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.rooms[r.ID] = r
	total := len(l.rooms)
	l.mu.Unlock()

	log.Printf("[Lobby] Open: conn %s -> room %s (%s, rivals=%v), total: %d", connID, r.ID, enc.Car.ID, enc.RivalIDs(), total)
	return r, nil
}

func normalizeOpenRequest(req codec.OpenRequest) codec.OpenRequest {
	req.LocationID = strings.TrimSpace(req.LocationID)
	if req.LocationID == "" {
		req.LocationID = defaultLocationID
	}
	req.EventID = strings.TrimSpace(req.EventID)
	if req.Day <= 0 {
		req.Day = 1
	}
	if req.Prestige < 0 {
		req.Prestige = 0
	}
	if req.Money <= 0 {
		req.Money = defaultMoney
	}
	if req.Eye <= 0 {
		req.Eye = defaultEye
	}
	return req
}

// Get returns a room by ID.
func (l *Lobby) Get(roomID string) *room.Room {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rooms[roomID]
}

// Close stops and forgets a room.
func (l *Lobby) Close(roomID string) {
	l.mu.Lock()
	r := l.rooms[roomID]
	delete(l.rooms, roomID)
	l.mu.Unlock()
	if r != nil {
		r.Stop()
	}
}

// ListRooms returns all room IDs.
func (l *Lobby) ListRooms() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.rooms))
	for id := range l.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReapIdle closes rooms that are closed or idle for ttl and returns how many.
// An auction still in progress is withdrawn and recorded before its room stops.
func (l *Lobby) ReapIdle(ttl time.Duration) int {
	l.mu.Lock()
	var idle []*room.Room
	for id, r := range l.rooms {
		if r.IsIdleFor(ttl) {
			idle = append(idle, r)
			delete(l.rooms, id)
		}
	}
	l.mu.Unlock()

	for _, r := range idle {
		if err := r.Leave(); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			log.Printf("[Lobby] Withdraw on reap failed for room %s: %v", r.ID, err)
		}
	}
	if len(idle) > 0 {
		log.Printf("[Lobby] Reaped %d idle rooms", len(idle))
	}
	return len(idle)
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (l *Lobby) RunReaper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.ReapIdle(ttl)
		case <-ctx.Done():
			return
		}
	}
}
