package rival

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"curator-lite/catalog"
)

// Registry holds the rival templates. Templates are immutable after load;
// every accessor returns clones.
type Registry struct {
	mu     sync.RWMutex
	rivals map[string]*Rival
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rivals: make(map[string]*Rival),
	}
}

// LoadFromFile loads rival templates from a JSON file.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rivals file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads rival templates from raw JSON bytes.
func (r *Registry) LoadFromJSON(data []byte) error {
	var list []*Rival
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse rivals JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range list {
		if rv == nil || rv.ID == "" {
			continue
		}
		rv.Wishlist = catalog.NormalizeTags(rv.Wishlist)
		if rv.Patience < 0 {
			rv.Patience = 0
		}
		if rv.Budget < 0 {
			rv.Budget = 0
		}
		r.rivals[rv.ID] = rv
	}
	return nil
}

// Add registers a single template, replacing any with the same ID.
func (r *Registry) Add(rv Rival) {
	if rv.ID == "" {
		return
	}
	c := rv.Clone()
	c.Wishlist = catalog.NormalizeTags(c.Wishlist)
	r.mu.Lock()
	r.rivals[c.ID] = &c
	r.mu.Unlock()
}

// Get returns a copy of the template with the given ID.
func (r *Registry) Get(id string) (Rival, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv := r.rivals[id]
	if rv == nil {
		return Rival{}, false
	}
	return rv.Clone(), true
}

// All returns copies of every template sorted by ID.
func (r *Registry) All() []Rival {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(func(*Rival) bool { return true })
}

// ByTier returns copies of every template of the given tier.
func (r *Registry) ByTier(tier int) []Rival {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(func(rv *Rival) bool { return rv.Tier == tier })
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rivals)
}

func (r *Registry) sortedLocked(keep func(*Rival) bool) []Rival {
	out := make([]Rival, 0, len(r.rivals))
	for _, rv := range r.rivals {
		if keep(rv) {
			out = append(out, rv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
