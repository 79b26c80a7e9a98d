package persistence

import (
	"context"
	"sync"
)

// MemoryStore implements Port with an in-process map. Used by tests and by
// deployments that accept losing viewer state on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load returns the stored bytes for key.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so callers cannot mutate the stored document.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores data under key.
func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.docs[key] = stored
	return nil
}
