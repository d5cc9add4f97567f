package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	item   HistoryItem
	events []EventItem
}

// MemoryService keeps the ledger in process. Nothing survives a restart.
type MemoryService struct {
	mu          sync.RWMutex
	entries     map[Source]map[string]*memoryEntry
	recentLimit int
	savedLimit  int
}

func NewMemoryService(recentLimit, savedLimit int) *MemoryService {
	return &MemoryService{
		entries: map[Source]map[string]*memoryEntry{
			SourceLive:   {},
			SourceReplay: {},
		},
		recentLimit: recentLimit,
		savedLimit:  savedLimit,
	}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) RecordAuction(_ context.Context, rec Record) error {
	if err := normalizeRecord(&rec); err != nil {
		return err
	}
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.entries[rec.Source]
	e := bucket[rec.SessionID]
	if e == nil {
		e = &memoryEntry{}
		bucket[rec.SessionID] = e
	}
	saved, savedAt := e.item.IsSaved, e.item.SavedAt
	e.item = HistoryItem{
		SessionID: rec.SessionID,
		Source:    rec.Source,
		CarID:     rec.CarID,
		Outcome:   rec.Outcome,
		Winner:    rec.Winner,
		Price:     rec.Price,
		Turns:     rec.Turns,
		PlayedAt:  rec.PlayedAt.UTC(),
		IsSaved:   saved,
		SavedAt:   savedAt,
		Summary:   rec.Summary,
		UpdatedAt: now,
	}
	if len(rec.Events) > 0 {
		e.events = append([]EventItem(nil), rec.Events...)
	}
	s.trimLocked(rec.Source)
	return nil
}

func (s *MemoryService) trimLocked(source Source) {
	if s.recentLimit <= 0 {
		return
	}
	unsaved := make([]*memoryEntry, 0, len(s.entries[source]))
	for _, e := range s.entries[source] {
		if !e.item.IsSaved {
			unsaved = append(unsaved, e)
		}
	}
	if len(unsaved) <= s.recentLimit {
		return
	}
	sortRecent(unsaved)
	for _, e := range unsaved[s.recentLimit:] {
		delete(s.entries[source], e.item.SessionID)
	}
}

func (s *MemoryService) ListRecent(_ context.Context, source Source, limit int) ([]HistoryItem, error) {
	if !isAuditSource(source) {
		return nil, fmt.Errorf("invalid source %q", source)
	}
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*memoryEntry, 0, len(s.entries[source]))
	for _, e := range s.entries[source] {
		all = append(all, e)
	}
	sortRecent(all)
	if len(all) > limit {
		all = all[:limit]
	}
	items := make([]HistoryItem, 0, len(all))
	for _, e := range all {
		items = append(items, e.item)
	}
	return items, nil
}

func (s *MemoryService) GetAuction(_ context.Context, source Source, sessionID string) (HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[source][sessionID]
	if e == nil {
		return HistoryItem{}, ErrNotFound
	}
	return e.item, nil
}

func (s *MemoryService) GetAuctionEvents(_ context.Context, source Source, sessionID string) ([]EventItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[source][sessionID]
	if e == nil || len(e.events) == 0 {
		return nil, ErrNotFound
	}
	return append([]EventItem(nil), e.events...), nil
}

func (s *MemoryService) SetSaved(_ context.Context, source Source, sessionID string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[source][sessionID]
	if e == nil {
		return ErrNotFound
	}
	if e.item.IsSaved == saved {
		return nil
	}
	now := time.Now().UTC()
	if saved {
		count := 0
		for _, other := range s.entries[source] {
			if other.item.IsSaved {
				count++
			}
		}
		if count >= s.savedLimit {
			return ErrSavedLimitReach
		}
		e.item.IsSaved = true
		e.item.SavedAt = &now
	} else {
		e.item.IsSaved = false
		e.item.SavedAt = nil
	}
	e.item.UpdatedAt = now
	if !saved {
		s.trimLocked(source)
	}
	return nil
}

func sortRecent(entries []*memoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].item, entries[j].item
		if !a.PlayedAt.Equal(b.PlayedAt) {
			return a.PlayedAt.After(b.PlayedAt)
		}
		return a.SessionID > b.SessionID
	})
}
