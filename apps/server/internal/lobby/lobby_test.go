package lobby

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator-lite/apps/server/internal/codec"
	"curator-lite/apps/server/internal/ledger"
	"curator-lite/auction"
	"curator-lite/content"
	"curator-lite/replay"
)

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	b, err := content.Load("")
	if err != nil {
		t.Fatalf("content.Load err: %v", err)
	}
	return New(b, ledger.NewMemoryService(10, 5), 7)
}

func newTestLobbyWithLedger(t *testing.T) (*Lobby, *ledger.MemoryService) {
	t.Helper()
	b, err := content.Load("")
	if err != nil {
		t.Fatalf("content.Load err: %v", err)
	}
	svc := ledger.NewMemoryService(10, 5)
	return New(b, svc, 7), svc
}

func TestLobby_OpenAppliesDefaults(t *testing.T) {
	l := newTestLobby(t)
	r, err := l.Open("conn_1", codec.OpenRequest{Prestige: 60}, func([]byte) {})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer l.Close(r.ID)

	snap := r.Snapshot()
	if snap.State != auction.StateInProgress {
		t.Fatalf("expected an open auction, got %s", snap.State)
	}
	if snap.Player.Money != defaultMoney || snap.Player.Eye != defaultEye || snap.Player.ID != "conn_1" {
		t.Fatalf("unexpected player defaults: %+v", snap.Player)
	}
	if l.Get(r.ID) != r {
		t.Fatalf("expected the room to be registered")
	}
	if ids := l.ListRooms(); len(ids) != 1 || ids[0] != r.ID {
		t.Fatalf("unexpected rooms: %v", ids)
	}
}

func TestLobby_OpenSpecialEvent(t *testing.T) {
	l := newTestLobby(t)
	if _, err := l.Open("conn_1", codec.OpenRequest{EventID: "no_such_night"}, func([]byte) {}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	r, err := l.Open("conn_2", codec.OpenRequest{EventID: "barn_find_bonanza", LocationID: "county_fairgrounds", Prestige: 60, Money: 500000}, func([]byte) {})
	if err != nil {
		t.Fatalf("Open special err: %v", err)
	}
	defer l.Close(r.ID)
	if r.Snapshot().CarID == "" {
		t.Fatalf("expected a car on the special encounter")
	}
}

func TestLobby_ReapIdle(t *testing.T) {
	l := newTestLobby(t)
	left, err := l.Open("conn_1", codec.OpenRequest{Prestige: 60}, func([]byte) {})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	live, err := l.Open("conn_2", codec.OpenRequest{Prestige: 60}, func([]byte) {})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer l.Close(live.ID)

	if err := left.Leave(); err != nil {
		t.Fatalf("Leave err: %v", err)
	}
	if n := l.ReapIdle(time.Hour); n != 1 {
		t.Fatalf("expected one reaped room, got %d", n)
	}
	if l.Get(left.ID) != nil || l.Get(live.ID) == nil {
		t.Fatalf("reaper removed the wrong room")
	}
	if n := l.ReapIdle(0); n != 1 || len(l.ListRooms()) != 0 {
		t.Fatalf("zero ttl should reap the remaining room, got %d", n)
	}
}

func TestLobby_ReapIdleWithdrawsOpenAuction(t *testing.T) {
	l, svc := newTestLobbyWithLedger(t)
	var kinds []string
	r, err := l.Open("conn_1", codec.OpenRequest{Prestige: 60}, func(data []byte) {
		if env, err := replay.DecodeEnvelope(data); err == nil {
			kinds = append(kinds, replay.EnvelopeType(env))
		}
	})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if n := l.ReapIdle(time.Millisecond); n != 1 {
		t.Fatalf("expected one reaped room, got %d", n)
	}
	if !r.IsClosed() {
		t.Fatalf("expected the reaped room to be stopped")
	}
	snap := r.Snapshot()
	if snap.State != auction.StateClosed || snap.Outcome != auction.StatePlayerWithdrew {
		t.Fatalf("expected a withdrawn auction, got %s/%s", snap.State, snap.Outcome)
	}
	if kinds[len(kinds)-1] != "settlement" {
		t.Fatalf("expected a settlement to be sent last, got %v", kinds)
	}
	item, err := svc.GetAuction(context.Background(), ledger.SourceLive, r.ID)
	if err != nil {
		t.Fatalf("GetAuction err: %v", err)
	}
	if item.Outcome != auction.StatePlayerWithdrew.String() {
		t.Fatalf("expected %s in the ledger, got %s", auction.StatePlayerWithdrew, item.Outcome)
	}
}
