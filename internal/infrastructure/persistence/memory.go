package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-user demo mode.
// Records go through a JSON round-trip on both read and write so the
// serialization semantics match the real backends exactly.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrKeyEmpty
	}

	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return ErrKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
	return nil
}

// SetRaw stores raw bytes at a key, bypassing serialization. Test helper for
// simulating corrupted records.
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	s.records[key] = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
