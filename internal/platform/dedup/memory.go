package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation useful for testing and
// single-instance deployments.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryStore constructs an empty memory-backed dedup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time)}
}

// MarkNotified implements the Store interface.
func (s *MemoryStore) MarkNotified(_ context.Context, transactionID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[transactionID]; ok {
		return true, nil
	}
	s.seen[transactionID] = now.UTC()
	return false, nil
}
