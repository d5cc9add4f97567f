package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func backends(t *testing.T, recent, saved int) map[string]Service {
	t.Helper()
	sqlite, err := NewSQLiteService(":memory:", recent, saved)
	if err != nil {
		t.Fatalf("NewSQLiteService err: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Service{
		"memory": NewMemoryService(recent, saved),
		"sqlite": sqlite,
	}
}

func sampleRecord(id string, at time.Time) Record {
	ts := at.UnixMilli()
	return Record{
		SessionID: id,
		CarID:     "supra_mk4",
		Outcome:   "player_won",
		Winner:    "player",
		Price:     48000,
		Turns:     4,
		PlayedAt:  at,
		Events: []EventItem{
			{Seq: 1, EventType: "auctionStart", EnvelopeB64: "AA==", ServerTsMs: &ts},
			{Seq: 2, EventType: "playerAction", EnvelopeB64: "AQ=="},
			{Seq: 3, EventType: ""},
		},
	}
}

func TestLedger_RecordAndRead(t *testing.T) {
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()
	for name, svc := range backends(t, 10, 5) {
		if err := svc.RecordAuction(ctx, sampleRecord("s1", base)); err != nil {
			t.Fatalf("%s: RecordAuction err: %v", name, err)
		}
		item, err := svc.GetAuction(ctx, SourceLive, "s1")
		if err != nil {
			t.Fatalf("%s: GetAuction err: %v", name, err)
		}
		if item.CarID != "supra_mk4" || item.Price != 48000 || item.Winner != "player" || !item.PlayedAt.Equal(base) {
			t.Fatalf("%s: unexpected item: %+v", name, item)
		}
		if got := fmt.Sprint(item.Summary["event_count"]); got != "3" {
			t.Fatalf("%s: expected event_count 3, got %s", name, got)
		}

		events, err := svc.GetAuctionEvents(ctx, SourceLive, "s1")
		if err != nil {
			t.Fatalf("%s: GetAuctionEvents err: %v", name, err)
		}
		if len(events) != 3 || events[0].Seq != 1 || events[2].EventType != "unknown" {
			t.Fatalf("%s: unexpected events: %+v", name, events)
		}
		if events[0].ServerTsMs == nil || *events[0].ServerTsMs != base.UnixMilli() {
			t.Fatalf("%s: expected server ts on the first event", name)
		}

		if _, err := svc.GetAuction(ctx, SourceReplay, "s1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound for the other source, got %v", name, err)
		}
	}
}

func TestLedger_TrimKeepsSaved(t *testing.T) {
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()
	for name, svc := range backends(t, 2, 5) {
		if err := svc.RecordAuction(ctx, sampleRecord("old", base)); err != nil {
			t.Fatalf("%s: RecordAuction err: %v", name, err)
		}
		if err := svc.SetSaved(ctx, SourceLive, "old", true); err != nil {
			t.Fatalf("%s: SetSaved err: %v", name, err)
		}
		for i := 1; i <= 3; i++ {
			if err := svc.RecordAuction(ctx, sampleRecord(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("%s: RecordAuction err: %v", name, err)
			}
		}
		items, err := svc.ListRecent(ctx, SourceLive, 50)
		if err != nil {
			t.Fatalf("%s: ListRecent err: %v", name, err)
		}
		var ids []string
		for _, it := range items {
			ids = append(ids, it.SessionID)
		}
		if got := strings.Join(ids, ","); got != "s3,s2,old" {
			t.Fatalf("%s: expected s3,s2,old got %s", name, got)
		}
		if _, err := svc.GetAuctionEvents(ctx, SourceLive, "s1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected trimmed events to be gone, got %v", name, err)
		}
	}
}

func TestLedger_SavedLimit(t *testing.T) {
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()
	for name, svc := range backends(t, 10, 1) {
		for _, id := range []string{"a", "b"} {
			if err := svc.RecordAuction(ctx, sampleRecord(id, base)); err != nil {
				t.Fatalf("%s: RecordAuction err: %v", name, err)
			}
		}
		if err := svc.SetSaved(ctx, SourceLive, "a", true); err != nil {
			t.Fatalf("%s: SetSaved err: %v", name, err)
		}
		if err := svc.SetSaved(ctx, SourceLive, "b", true); !errors.Is(err, ErrSavedLimitReach) {
			t.Fatalf("%s: expected ErrSavedLimitReach, got %v", name, err)
		}
		if err := svc.SetSaved(ctx, SourceLive, "a", false); err != nil {
			t.Fatalf("%s: unsave err: %v", name, err)
		}
		if err := svc.SetSaved(ctx, SourceLive, "b", true); err != nil {
			t.Fatalf("%s: SetSaved after unsave err: %v", name, err)
		}
		if err := svc.SetSaved(ctx, SourceLive, "ghost", true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestHTTPHandler_RecentAndGet(t *testing.T) {
	svc := NewMemoryService(10, 5)
	if err := svc.RecordAuction(context.Background(), sampleRecord("s1", time.Now())); err != nil {
		t.Fatalf("RecordAuction err: %v", err)
	}
	mux := http.NewServeMux()
	NewHTTPHandler(svc).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/live/recent?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("recent status %d", rec.Code)
	}
	var recent struct {
		Items []HistoryItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &recent); err != nil {
		t.Fatalf("decode recent err: %v", err)
	}
	if len(recent.Items) != 1 || recent.Items[0].SessionID != "s1" {
		t.Fatalf("unexpected recent: %+v", recent)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/live/auctions/s1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "auctionStart") {
		t.Fatalf("get status %d body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/live/auctions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/audit/live/auctions/s1/save", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status %d", rec.Code)
	}
	if item, _ := svc.GetAuction(context.Background(), SourceLive, "s1"); !item.IsSaved {
		t.Fatalf("expected s1 to be saved")
	}
}

func TestHTTPHandler_RecordReplay(t *testing.T) {
	svc := NewMemoryService(10, 5)
	mux := http.NewServeMux()
	NewHTTPHandler(svc).RegisterRoutes(mux)

	body := `{"car_id":"f40","outcome":"player_withdrew","events":[{"seq":1,"event_type":"snapshot","envelope_b64":"AA=="}]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/audit/replay/auctions/r1", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("record status %d body %s", rec.Code, rec.Body.String())
	}
	item, err := svc.GetAuction(context.Background(), SourceReplay, "r1")
	if err != nil || item.CarID != "f40" {
		t.Fatalf("expected recorded replay, got %+v err=%v", item, err)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/audit/replay/auctions/r2", strings.NewReader(`{"bogus":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown fields, got %d", rec.Code)
	}
}

func TestNewServiceFromEnv_Modes(t *testing.T) {
	svc, mode, err := NewServiceFromEnv("memory")
	if err != nil || mode != "memory" {
		t.Fatalf("memory mode: %s err=%v", mode, err)
	}
	_ = svc.Close()

	t.Setenv("LEDGER_LOCAL_DATABASE_PATH", t.TempDir()+"/ledger.db")
	svc, mode, err = NewServiceFromEnv("sqlite")
	if err != nil || mode != "sqlite" {
		t.Fatalf("sqlite mode: %s err=%v", mode, err)
	}
	_ = svc.Close()

	if _, _, err := NewServiceFromEnv("carrier-pigeon"); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}
