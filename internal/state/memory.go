package state

import (
	"context"
	"sync"
)

// MemoryStore is the in-process driver used by tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[compositeKey(namespace, key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, namespace string, kvs []KV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kv := range kvs {
		cp := make([]byte, len(kv.Value))
		copy(cp, kv.Value)
		s.data[compositeKey(namespace, kv.Key)] = cp
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, compositeKey(namespace, key))
	return nil
}

// Len reports the number of stored keys across all namespaces.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
