package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Registry holds the read-only car and location tables.
type Registry struct {
	mu        sync.RWMutex
	cars      map[string]*Car
	locations map[string]*Location
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		cars:      make(map[string]*Car),
		locations: make(map[string]*Location),
	}
}

// LoadCarsFromFile loads cars from a JSON file.
func (r *Registry) LoadCarsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cars file: %w", err)
	}
	return r.LoadCarsFromJSON(data)
}

// LoadCarsFromJSON loads cars from raw JSON bytes. Tags are deduplicated on
// the way in so interest never double-counts a repeated tag.
func (r *Registry) LoadCarsFromJSON(data []byte) error {
	var list []*Car
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse cars JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range list {
		if c == nil || c.ID == "" {
			continue
		}
		c.Tags = NormalizeTags(c.Tags)
		c.Condition = clampInt(c.Condition, 0, 100)
		r.cars[c.ID] = c
	}
	return nil
}

// LoadLocationsFromFile loads venues from a JSON file.
func (r *Registry) LoadLocationsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read locations file: %w", err)
	}
	return r.LoadLocationsFromJSON(data)
}

// LoadLocationsFromJSON loads venues from raw JSON bytes.
func (r *Registry) LoadLocationsFromJSON(data []byte) error {
	var list []*Location
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse locations JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range list {
		if l == nil || l.ID == "" {
			continue
		}
		r.locations[l.ID] = l
	}
	return nil
}

// Car returns a copy of the car with the given ID.
func (r *Registry) Car(id string) (Car, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.cars[id]
	if c == nil {
		return Car{}, false
	}
	return c.Clone(), true
}

// Cars returns copies of all cars sorted by ID.
func (r *Registry) Cars() []Car {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedCarsLocked(func(*Car) bool { return true })
}

// ByTier returns copies of all cars whose effective tier is tier.
func (r *Registry) ByTier(tier CarTier) []Car {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedCarsLocked(func(c *Car) bool { return c.EffectiveTier() == tier })
}

// CarCount returns the number of cars loaded.
func (r *Registry) CarCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cars)
}

// Location returns the venue with the given ID.
func (r *Registry) Location(id string) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l := r.locations[id]
	if l == nil {
		return Location{}, false
	}
	return *l, true
}

// Locations returns all venues sorted by ID.
func (r *Registry) Locations() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedCarsLocked keeps draw order stable so seeded draws are reproducible.
func (r *Registry) sortedCarsLocked(keep func(*Car) bool) []Car {
	out := make([]Car, 0, len(r.cars))
	for _, c := range r.cars {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
