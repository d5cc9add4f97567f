package replay

import (
	"reflect"
	"testing"

	"curator-lite/auction"
	"curator-lite/auction/rival"
	"curator-lite/catalog"
)

func TestGenerateReplayTape_IsDeterministic(t *testing.T) {
	spec := baseAuctionSpec()

	tapeA, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape A failed: %v", err)
	}
	tapeB, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape B failed: %v", err)
	}

	if !reflect.DeepEqual(ToWireReplayTape(tapeA), ToWireReplayTape(tapeB)) {
		t.Fatalf("expected deterministic replay tape for the same AuctionSpec")
	}
	if tapeA.SessionID != defaultSessionID || tapeA.CarID != "supra" {
		t.Fatalf("unexpected tape header: %s %s", tapeA.SessionID, tapeA.CarID)
	}

	seen := map[string]bool{}
	for i, e := range tapeA.Events {
		if e.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, e.Seq)
		}
		seen[e.Type] = true
	}
	for _, kind := range []string{"snapshot", "auctionStart", "actionPrompt", "playerAction", "auctionEnd", "settlement"} {
		if !seen[kind] {
			t.Fatalf("expected replay tape to contain %s events, got %v", kind, seen)
		}
	}
	if first := tapeA.Events[0].Type; first != "snapshot" {
		t.Fatalf("expected the tape to open with a snapshot, got %s", first)
	}
}

func TestGenerateReplayTape_EnvelopesDecode(t *testing.T) {
	tape, err := GenerateReplayTape(baseAuctionSpec())
	if err != nil {
		t.Fatalf("GenerateReplayTape failed: %v", err)
	}
	for _, e := range tape.Events {
		env, err := DecodeEnvelopeB64(e.EnvelopeB64)
		if err != nil {
			t.Fatalf("decode seq %d: %v", e.Seq, err)
		}
		if got := EnvelopeType(env); got != e.Type {
			t.Fatalf("seq %d: envelope type %s, tape type %s", e.Seq, got, e.Type)
		}
		if sid := env.GetFields()["session_id"].GetStringValue(); sid != defaultSessionID {
			t.Fatalf("seq %d: unexpected session id %s", e.Seq, sid)
		}
	}

	last := tape.Events[len(tape.Events)-1]
	payload := EnvelopePayload(last.Value)
	if payload["state"] != "closed" || payload["outcome"] != "player_withdrew" {
		t.Fatalf("expected a closed final snapshot, got %v", payload)
	}
}

func TestGenerateReplayTape_ReturnsReplayErrorAfterClose(t *testing.T) {
	spec := baseAuctionSpec()
	spec.Actions = append(spec.Actions, ActionSpec{Type: "BID"})

	_, err := GenerateReplayTape(spec)
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "no_action_expected" || replayErr.StepIndex != 2 {
		t.Fatalf("unexpected error: %+v", replayErr)
	}
}

func TestGenerateReplayTape_ReturnsReplayErrorOnStallLimit(t *testing.T) {
	spec := baseAuctionSpec()
	spec.Actions = []ActionSpec{{Type: "STALL"}, {Type: "STALL"}, {Type: "STALL"}, {Type: "STALL"}}

	_, err := GenerateReplayTape(spec)
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "illegal_action" || replayErr.StepIndex != 3 {
		t.Fatalf("unexpected error: %+v", replayErr)
	}
	if replayErr.Expected == nil || replayErr.Expected.StallsLeft != 0 {
		t.Fatalf("expected replay error to include the exhausted stall count")
	}
}

func TestGenerateReplayTape_MapsEngineErrors(t *testing.T) {
	spec := baseAuctionSpec()
	spec.Actions = []ActionSpec{{Type: "kick-tires", Target: "ghost"}}

	_, err := GenerateReplayTape(spec)
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "unknown_rival" || replayErr.Expected == nil {
		t.Fatalf("unexpected error: %+v", replayErr)
	}
}

func TestGenerateReplayTape_RejectsBadSpecs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AuctionSpec)
		reason string
	}{
		{"missing car", func(s *AuctionSpec) { s.Car.ID = "" }, "invalid_car"},
		{"player id", func(s *AuctionSpec) { s.Rivals[0].ID = auction.PlayerBidderID }, "invalid_rival"},
		{"duplicate rival", func(s *AuctionSpec) { s.Rivals = append(s.Rivals, s.Rivals[0]) }, "duplicate_rival"},
		{"unknown action", func(s *AuctionSpec) { s.Actions[0].Type = "SHOUT" }, "invalid_action"},
		{"kick without target", func(s *AuctionSpec) { s.Actions[0] = ActionSpec{Type: "KICK_TIRES"} }, "missing_target"},
		{"bad economy", func(s *AuctionSpec) { s.EconomyYAML = "auction: [" }, "invalid_economy"},
	}
	for _, tc := range cases {
		spec := baseAuctionSpec()
		tc.mutate(&spec)
		_, err := GenerateReplayTape(spec)
		replayErr, ok := err.(*ReplayError)
		if !ok {
			t.Fatalf("%s: expected ReplayError type, got %T", tc.name, err)
		}
		if replayErr.Reason != tc.reason {
			t.Fatalf("%s: expected reason %s, got %s", tc.name, tc.reason, replayErr.Reason)
		}
	}
}

func TestGenerateReplayTape_PinnedInterest(t *testing.T) {
	spec := baseAuctionSpec()
	pinned := 5
	spec.Rivals[0].Interest = &pinned
	spec.Actions = []ActionSpec{{Type: "WITHDRAW"}}

	tape, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape failed: %v", err)
	}
	snap := EnvelopePayload(tape.Events[0].Value)
	rivals, _ := snap["rivals"].([]any)
	if len(rivals) != 1 {
		t.Fatalf("expected one rival in the opening snapshot, got %v", snap["rivals"])
	}
	if got := rivals[0].(map[string]any)["interest"]; got != float64(5) {
		t.Fatalf("expected pinned interest 5, got %v", got)
	}
}

func baseAuctionSpec() AuctionSpec {
	return AuctionSpec{
		Day: 3,
		Car: catalog.Car{ID: "supra", Name: "Supra", BaseValue: 20000, Condition: 80, Tags: []catalog.Tag{catalog.TagJDM}},
		Rivals: []RivalSpec{{Rival: rival.Rival{
			ID:       "sterling",
			Name:     "Sterling",
			Tier:     2,
			Budget:   30000,
			Patience: 50,
			Wishlist: []catalog.Tag{catalog.TagJDM},
			Strategy: rival.StrategyPassive,
		}}},
		Player:  auction.Player{ID: "you", Money: 100000, Eye: 3},
		Actions: []ActionSpec{{Type: "STALL"}, {Type: "WITHDRAW"}},
	}
}
