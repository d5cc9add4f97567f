package rival

import (
	"sort"

	"curator-lite/catalog"
	"curator-lite/config"
)

// ComputeInterest scores how much a rival wants a car: base plus a bonus per
// distinct car tag on the wishlist, capped at Max.
func ComputeInterest(rv Rival, carTags []catalog.Tag, t config.InterestTuning) int {
	interest := t.Base + t.PerMatchingTag*catalog.CountShared(carTags, rv.Wishlist)
	if interest > t.Max {
		interest = t.Max
	}
	if interest < 0 {
		interest = 0
	}
	return interest
}

// AttendanceChance maps interest onto a linear ramp between MinChance and
// MaxChance.
func AttendanceChance(interest int, a config.AttendanceTuning) float64 {
	t := float64(interest-a.InterestFloor) / float64(a.InterestSpan)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a.MinChance + (a.MaxChance-a.MinChance)*t
}

// AuctionRivalEntry pairs a materialized rival with its interest in the car
// on the block.
type AuctionRivalEntry struct {
	Rival    Rival `json:"rival"`
	Interest int   `json:"interest"`
}

// AttendanceOptions bounds one roster draw.
type AttendanceOptions struct {
	MinAttendees   int
	MaxAttendees   int
	CandidateCount int
	ExcludeIDs     []string
}

// DefaultAttendanceOptions returns the configured roster bounds.
func DefaultAttendanceOptions(a config.AttendanceTuning) AttendanceOptions {
	return AttendanceOptions{
		MinAttendees:   a.MinAttendees,
		MaxAttendees:   a.MaxAttendees,
		CandidateCount: a.CandidateCount,
	}
}

// PickAttendingRivals builds an auction roster. Candidates are drawn without
// repetition through the prestige tier progression, each attends with its
// attendance chance, and a short roster is backfilled by interest.
func (s *Selector) PickAttendingRivals(prestige int, day int, carTags []catalog.Tag, opts AttendanceOptions) []AuctionRivalEntry {
	if opts.MaxAttendees <= 0 || opts.CandidateCount <= 0 {
		return nil
	}
	minAttendees := opts.MinAttendees
	if minAttendees > opts.MaxAttendees {
		minAttendees = opts.MaxAttendees
	}
	carTags = catalog.NormalizeTags(carTags)

	excluded := make(map[string]struct{}, len(opts.ExcludeIDs)+opts.CandidateCount)
	for _, id := range opts.ExcludeIDs {
		excluded[id] = struct{}{}
	}
	all := s.registry.All()

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]AuctionRivalEntry, 0, opts.CandidateCount)
	for len(candidates) < opts.CandidateCount {
		pool := make([]Rival, 0, len(all))
		for _, rv := range all {
			if _, skip := excluded[rv.ID]; !skip {
				pool = append(pool, rv)
			}
		}
		tier := SelectTierByPrestige(s.rng, prestige, s.econ.Tiers)
		rv, ok := s.selectForTierLocked(pool, all, tier)
		if !ok {
			break
		}
		excluded[rv.ID] = struct{}{}
		rv.Mood = ComputeMood(rv.ID, day)
		candidates = append(candidates, AuctionRivalEntry{
			Rival:    rv,
			Interest: ComputeInterest(rv, carTags, s.econ.Interest),
		})
	}

	attending := make([]AuctionRivalEntry, 0, opts.MaxAttendees)
	accepted := make(map[string]struct{}, opts.MaxAttendees)
	for _, c := range candidates {
		if len(attending) >= opts.MaxAttendees {
			break
		}
		if s.rng.Float64() < AttendanceChance(c.Interest, s.econ.Attendance) {
			attending = append(attending, c)
			accepted[c.Rival.ID] = struct{}{}
		}
	}

	if len(attending) < minAttendees {
		byInterest := append([]AuctionRivalEntry(nil), candidates...)
		sort.SliceStable(byInterest, func(i, j int) bool {
			return byInterest[i].Interest > byInterest[j].Interest
		})
		for _, c := range byInterest {
			if len(attending) >= minAttendees {
				break
			}
			if _, ok := accepted[c.Rival.ID]; ok {
				continue
			}
			attending = append(attending, c)
			accepted[c.Rival.ID] = struct{}{}
		}
	}

	if len(attending) > opts.MaxAttendees {
		attending = attending[:opts.MaxAttendees]
	}
	return attending
}
