package rival

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"curator-lite/catalog"
	"curator-lite/config"
)

const testRivalsJSON = `[
  {"id": "vance", "name": "Sterling Vance", "tier": 1, "budget": 500000, "patience": 80, "wishlist": ["Exotic", "European"], "strategy": "Aggressive"},
  {"id": "kenji", "name": "Kenji", "tier": 2, "budget": 120000, "patience": 70, "wishlist": ["JDM", "Turbo", "jdm"], "strategy": "Collector"},
  {"id": "marge", "name": "Marge", "tier": 3, "budget": 30000, "patience": 60, "wishlist": ["Classic"], "strategy": "passive"},
  {"id": "duke", "name": "Duke", "tier": 3, "budget": 25000, "patience": 50, "wishlist": ["Muscle"], "strategy": "Aggressive", "avatar": "duke_01"}
]`

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.LoadFromJSON([]byte(testRivalsJSON)); err != nil {
		t.Fatalf("LoadFromJSON err: %v", err)
	}
	return r
}

func bigRegistry(n int) *Registry {
	r := NewRegistry()
	for i := 0; i < n; i++ {
		r.Add(Rival{
			ID:       fmt.Sprintf("rival_%02d", i),
			Name:     fmt.Sprintf("Rival %d", i),
			Tier:     1 + i%3,
			Budget:   int64(20000 + i*5000),
			Patience: 40 + i,
			Wishlist: []catalog.Tag{catalog.TagJDM},
			Strategy: Strategy(i % 3),
		})
	}
	return r
}

func TestRegistry_LoadFromJSON(t *testing.T) {
	r := newTestRegistry(t)
	if r.Count() != 4 {
		t.Fatalf("expected 4 rivals, got %d", r.Count())
	}
	kenji, ok := r.Get("kenji")
	if !ok {
		t.Fatalf("kenji not found")
	}
	if kenji.Strategy != StrategyCollector {
		t.Fatalf("expected collector, got %s", kenji.Strategy)
	}
	if len(kenji.Wishlist) != 2 {
		t.Fatalf("expected wishlist deduped, got %v", kenji.Wishlist)
	}
	marge, _ := r.Get("marge")
	if marge.Strategy != StrategyPassive {
		t.Fatalf("expected case-insensitive strategy, got %s", marge.Strategy)
	}
	if got := len(r.ByTier(3)); got != 2 {
		t.Fatalf("expected 2 tier-3 rivals, got %d", got)
	}
	if err := r.LoadFromJSON([]byte(`[{"id":"x","strategy":"Sniper"}]`)); err == nil {
		t.Fatalf("expected unknown strategy error")
	}
}

func TestComputeMood_BucketBoundaries(t *testing.T) {
	cases := map[int]Mood{
		0:  MoodDesperate,
		19: MoodDesperate,
		20: MoodCautious,
		39: MoodCautious,
		40: MoodConfident,
		54: MoodConfident,
		55: MoodNormal,
		99: MoodNormal,
	}
	for seed, want := range cases {
		id := string(rune(100 + seed))
		if got := MoodSeed(id, 0); got != seed {
			t.Fatalf("seed for %q: expected %d, got %d", id, seed, got)
		}
		if got := ComputeMood(id, 0); got != want {
			t.Fatalf("seed %d: expected %s, got %s", seed, want, got)
		}
	}
}

func TestComputeMood_DeterministicAndDayDriven(t *testing.T) {
	for day := -30; day < 30; day++ {
		a := ComputeMood("sterling_vance", day)
		b := ComputeMood("sterling_vance", day)
		if a != b {
			t.Fatalf("day %d: mood not deterministic", day)
		}
		if s := MoodSeed("sterling_vance", day); s < 0 || s >= 100 {
			t.Fatalf("day %d: seed out of range: %d", day, s)
		}
	}
	// "abc" sums to 294.
	if got := MoodSeed("abc", 1); got != 1 {
		t.Fatalf("expected seed 1, got %d", got)
	}
	if got := MoodSeed("a", -1); got != 90 {
		t.Fatalf("expected seed 90 for negative day, got %d", got)
	}
}

func TestComputeMood_UsesFullID(t *testing.T) {
	if MoodSeed("collector_aa", 0) == MoodSeed("collector_ab", 0) {
		t.Fatalf("ids differing only in the suffix must hash differently")
	}
}

func TestSelectTierByPrestige_Bands(t *testing.T) {
	th := config.Default().Tiers
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		if tier := SelectTierByPrestige(rng, 10, th); tier != 3 {
			t.Fatalf("rookie prestige drew tier %d", tier)
		}
		if tier := SelectTierByPrestige(rng, 100, th); tier != 2 && tier != 3 {
			t.Fatalf("mid prestige drew tier %d", tier)
		}
	}
}

func TestSelectTierByPrestige_EliteRatio(t *testing.T) {
	th := config.Default().Tiers
	rng := rand.New(rand.NewSource(42))
	const rounds = 20000
	counts := map[int]int{}
	for i := 0; i < rounds; i++ {
		counts[SelectTierByPrestige(rng, 200, th)]++
	}
	rate := float64(counts[1]) / rounds
	if rate < 0.57 || rate > 0.63 {
		t.Fatalf("tier-1 rate out of range: got %.3f, want ~0.60", rate)
	}
	for _, tier := range []int{2, 3} {
		r := float64(counts[tier]) / rounds
		if r < 0.17 || r > 0.23 {
			t.Fatalf("tier-%d rate out of range: got %.3f, want ~0.20", tier, r)
		}
	}
}

func TestSelectTierByPrestige_MidRatio(t *testing.T) {
	th := config.Default().Tiers
	rng := rand.New(rand.NewSource(9))
	const rounds = 20000
	counts := map[int]int{}
	for i := 0; i < rounds; i++ {
		counts[SelectTierByPrestige(rng, 100, th)]++
	}
	if counts[1] != 0 {
		t.Fatalf("mid prestige drew tier 1 %d times", counts[1])
	}
	if rate := float64(counts[2]) / rounds; rate < 0.72 || rate > 0.78 {
		t.Fatalf("tier-2 rate out of range: got %.3f, want ~0.75", rate)
	}
	if rate := float64(counts[3]) / rounds; rate < 0.22 || rate > 0.28 {
		t.Fatalf("tier-3 rate out of range: got %.3f, want ~0.25", rate)
	}
}

func TestSelectRivalForTier_FallsBackToWholePool(t *testing.T) {
	r := newTestRegistry(t)
	rng := rand.New(rand.NewSource(3))
	rv, fellBack, ok := SelectRivalForTier(rng, r.ByTier(3), 1)
	if !ok || !fellBack {
		t.Fatalf("expected fallback pick, ok=%v fellBack=%v", ok, fellBack)
	}
	if rv.Tier != 3 {
		t.Fatalf("fallback must come from the pool, got %s", rv)
	}
	if _, _, ok := SelectRivalForTier(rng, nil, 1); ok {
		t.Fatalf("expected empty pool to fail")
	}
}

func TestSelector_MaterializeAttachesMoodWithoutMutatingTemplate(t *testing.T) {
	r := newTestRegistry(t)
	s := NewSelector(r, config.Default(), 7)
	rv, ok := s.Materialize("vance", 12)
	if !ok {
		t.Fatalf("expected vance to resolve")
	}
	if rv.Mood != ComputeMood("vance", 12) {
		t.Fatalf("mood not attached: %s", rv.Mood)
	}
	rv.Wishlist[0] = "Mutated"
	tpl, _ := r.Get("vance")
	if tpl.Wishlist[0] != catalog.TagExotic || tpl.Mood != MoodNormal {
		t.Fatalf("template mutated: %+v", tpl)
	}
}

func TestSelector_MaterializeUnknownFallsBackWithWarning(t *testing.T) {
	r := newTestRegistry(t)
	s := NewSelector(r, config.Default(), 7)
	var warnings []string
	s.Logf = func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	rv, ok := s.Materialize("nobody", 3)
	if ok {
		t.Fatalf("expected fallback")
	}
	if rv.ID == "" {
		t.Fatalf("expected a substitute rival")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "nobody") {
		t.Fatalf("expected one warning naming the id, got %v", warnings)
	}
}

func TestComputeInterest(t *testing.T) {
	tuning := config.Default().Interest
	rv := Rival{Wishlist: []catalog.Tag{"JDM", "Sports"}}
	if got := ComputeInterest(rv, []catalog.Tag{"JDM", "Sports", "Turbo"}, tuning); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := ComputeInterest(rv, []catalog.Tag{"JDM", "JDM", "JDM"}, tuning); got != 65 {
		t.Fatalf("duplicate tags must count once, got %d", got)
	}
	wide := Rival{Wishlist: []catalog.Tag{"A", "B", "C", "D", "E"}}
	if got := ComputeInterest(wide, []catalog.Tag{"A", "B", "C", "D", "E"}, tuning); got != 100 {
		t.Fatalf("expected cap at 100, got %d", got)
	}
	if got := ComputeInterest(Rival{}, nil, tuning); got != 50 {
		t.Fatalf("expected base interest, got %d", got)
	}
}

func TestAttendanceChance(t *testing.T) {
	a := config.Default().Attendance
	if got := AttendanceChance(50, a); math.Abs(got-0.4654) > 0.0001 {
		t.Fatalf("expected ~0.4654, got %.5f", got)
	}
	if got := AttendanceChance(0, a); got != 0.35 {
		t.Fatalf("expected floor 0.35, got %v", got)
	}
	if got := AttendanceChance(35, a); got != 0.35 {
		t.Fatalf("expected floor at 35, got %v", got)
	}
	if got := AttendanceChance(100, a); math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("expected cap 0.85, got %v", got)
	}
	if got := AttendanceChance(150, a); math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("expected cap 0.85 above 100, got %v", got)
	}
}

func TestPickAttendingRivals_BoundsAndUniqueness(t *testing.T) {
	r := bigRegistry(20)
	econ := config.Default()
	for seed := int64(1); seed <= 300; seed++ {
		s := NewSelector(r, econ, seed)
		opts := DefaultAttendanceOptions(econ.Attendance)
		opts.ExcludeIDs = []string{"rival_00", "rival_01"}
		roster := s.PickAttendingRivals(int(seed%250), int(seed), []catalog.Tag{catalog.TagJDM}, opts)
		if len(roster) < 2 || len(roster) > 5 {
			t.Fatalf("seed %d: roster size %d out of [2,5]", seed, len(roster))
		}
		seen := map[string]bool{}
		for _, e := range roster {
			if seen[e.Rival.ID] {
				t.Fatalf("seed %d: duplicate rival %s", seed, e.Rival.ID)
			}
			seen[e.Rival.ID] = true
			if e.Rival.ID == "rival_00" || e.Rival.ID == "rival_01" {
				t.Fatalf("seed %d: excluded rival %s attended", seed, e.Rival.ID)
			}
			if e.Interest != 65 {
				t.Fatalf("seed %d: expected interest 65, got %d", seed, e.Interest)
			}
			if e.Rival.Mood != ComputeMood(e.Rival.ID, int(seed)) {
				t.Fatalf("seed %d: mood not attached to %s", seed, e.Rival.ID)
			}
		}
	}
}

func TestPickAttendingRivals_SmallPool(t *testing.T) {
	r := bigRegistry(1)
	s := NewSelector(r, config.Default(), 5)
	roster := s.PickAttendingRivals(0, 1, nil, DefaultAttendanceOptions(config.Default().Attendance))
	if len(roster) != 1 {
		t.Fatalf("expected the single rival to be backfilled, got %d", len(roster))
	}
}

func TestPickAttendingRivals_Deterministic(t *testing.T) {
	r := bigRegistry(15)
	econ := config.Default()
	opts := DefaultAttendanceOptions(econ.Attendance)
	a := NewSelector(r, econ, 11).PickAttendingRivals(160, 4, []catalog.Tag{"JDM"}, opts)
	b := NewSelector(r, econ, 11).PickAttendingRivals(160, 4, []catalog.Tag{"JDM"}, opts)
	if len(a) != len(b) {
		t.Fatalf("roster sizes diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Rival.ID != b[i].Rival.ID {
			t.Fatalf("roster %d diverged: %s vs %s", i, a[i].Rival.ID, b[i].Rival.ID)
		}
	}
}

func TestPickAttendingRivals_DrainedTierDoesNotWarn(t *testing.T) {
	r := bigRegistry(12)
	econ := config.Default()
	opts := DefaultAttendanceOptions(econ.Attendance)
	for seed := int64(1); seed <= 100; seed++ {
		s := NewSelector(r, econ, seed)
		var warnings []string
		s.Logf = func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}
		s.PickAttendingRivals(int(100+seed), 1, nil, opts)
		if len(warnings) != 0 {
			t.Fatalf("seed %d: every tier exists, got warnings %v", seed, warnings)
		}
	}
}

func TestSelector_MissingTierWarns(t *testing.T) {
	r := NewRegistry()
	for i, tier := range []int{2, 2, 3, 3} {
		r.Add(Rival{ID: fmt.Sprintf("r%d", i), Name: "R", Tier: tier, Budget: 10000, Patience: 50})
	}
	s := NewSelector(r, config.Default(), 4)
	var warnings []string
	s.Logf = func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	for i := 0; i < 50; i++ {
		if _, ok := s.MaterializeForTier(200, 1); !ok {
			t.Fatalf("expected a rival")
		}
	}
	if len(warnings) == 0 || !strings.Contains(warnings[0], "tier 1") {
		t.Fatalf("expected a tier-1 content warning, got %v", warnings)
	}
}
