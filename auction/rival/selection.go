package rival

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"curator-lite/config"
)

// Tier draw pools. Repeated entries encode the exact ratios.
var (
	midTierPool   = []int{2, 2, 2, 3}
	eliteTierPool = []int{1, 1, 1, 2, 3}
)

// SelectTierByPrestige picks the rival tier for one draw.
func SelectTierByPrestige(rng *rand.Rand, prestige int, th config.TierThresholds) int {
	switch {
	case prestige >= th.Tier1MinPrestige:
		return eliteTierPool[rng.Intn(len(eliteTierPool))]
	case prestige >= th.Tier2MaxPrestige:
		return midTierPool[rng.Intn(len(midTierPool))]
	default:
		return 3
	}
}

// SelectRivalForTier picks uniformly among pool entries of the given tier.
// When none match it picks uniformly over the whole pool and reports
// fellBack. ok is false only for an empty pool.
func SelectRivalForTier(rng *rand.Rand, pool []Rival, tier int) (rv Rival, fellBack bool, ok bool) {
	if len(pool) == 0 {
		return Rival{}, false, false
	}
	var inTier []Rival
	for _, p := range pool {
		if p.Tier == tier {
			inTier = append(inTier, p)
		}
	}
	if len(inTier) == 0 {
		return pool[rng.Intn(len(pool))].Clone(), true, true
	}
	return inTier[rng.Intn(len(inTier))].Clone(), false, true
}

// Selector draws rivals from a registry with its own seeded RNG. It is safe
// for concurrent use.
type Selector struct {
	registry *Registry
	econ     config.Economy

	mu  sync.Mutex
	rng *rand.Rand

	// Logf receives non-fatal content diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// NewSelector creates a selector. seed 0 seeds from the clock.
func NewSelector(registry *Registry, econ config.Economy, seed int64) *Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{
		registry: registry,
		econ:     econ,
		rng:      rand.New(rand.NewSource(seed)),
		Logf:     log.Printf,
	}
}

func (s *Selector) Registry() *Registry { return s.registry }

func (s *Selector) Economy() config.Economy { return s.econ }

// SelectTierByPrestige draws a tier using the selector's RNG.
func (s *Selector) SelectTierByPrestige(prestige int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectTierByPrestige(s.rng, prestige, s.econ.Tiers)
}

// SelectRivalForTier picks a rival of tier from pool, logging a fallback.
func (s *Selector) SelectRivalForTier(pool []Rival, tier int) (Rival, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectForTierLocked(pool, pool, tier)
}

// Materialize returns a copy of the template with its mood for day attached.
// An unknown ID falls back to a random rival and returns false; the zero
// Rival is returned only when the registry is empty.
func (s *Selector) Materialize(id string, day int) (Rival, bool) {
	if rv, ok := s.registry.Get(id); ok {
		rv.Mood = ComputeMood(rv.ID, day)
		return rv, true
	}
	s.warnf("[Rival] unknown rival id %q, substituting a random rival", id)

	all := s.registry.All()
	if len(all) == 0 {
		return Rival{}, false
	}
	s.mu.Lock()
	rv := all[s.rng.Intn(len(all))]
	s.mu.Unlock()
	rv.Mood = ComputeMood(rv.ID, day)
	return rv, false
}

// MaterializeForTier draws a rival through the prestige tier progression.
func (s *Selector) MaterializeForTier(prestige int, day int) (Rival, bool) {
	s.mu.Lock()
	tier := SelectTierByPrestige(s.rng, prestige, s.econ.Tiers)
	all := s.registry.All()
	rv, ok := s.selectForTierLocked(all, all, tier)
	s.mu.Unlock()
	if !ok {
		return Rival{}, false
	}
	rv.Mood = ComputeMood(rv.ID, day)
	return rv, true
}

// selectForTierLocked picks from pool. The empty-tier warning fires only when
// known holds no rival of tier; a tier drained by exclusions falls back quietly.
func (s *Selector) selectForTierLocked(pool, known []Rival, tier int) (Rival, bool) {
	rv, fellBack, ok := SelectRivalForTier(s.rng, pool, tier)
	if fellBack && !hasTier(known, tier) {
		s.warnf("[Rival] no rivals in tier %d, picked %s from the full pool", tier, rv.ID)
	}
	return rv, ok
}

func hasTier(rivals []Rival, tier int) bool {
	for _, rv := range rivals {
		if rv.Tier == tier {
			return true
		}
	}
	return false
}

func (s *Selector) warnf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}
