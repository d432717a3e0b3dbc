package ledger

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	byDay map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byDay: make(map[string][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	entry, err := validateEntry(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDay[entry.Day] = append(s.byDay[entry.Day], entry)
	return nil
}

func (s *MemoryStore) ListByDay(_ context.Context, day string) ([]Entry, error) {
	day, err := validateDay(day)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := append([]Entry(nil), s.byDay[day]...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}
