package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Record)}
}

func (s *MemoryStore) Save(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.runs[r.RunID] = append(s.runs[r.RunID], r)
	}
	return nil
}

func (s *MemoryStore) Run(ctx context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.runs[runID])
	if out == nil {
		out = []Record{}
	}
	slices.SortStableFunc(out, func(a, b Record) int { return cmp.Compare(a.Index, b.Index) })
	return out, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
