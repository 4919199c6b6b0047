// Package memory provides a process-local KeyValueStore. Nothing survives a
// restart; it backs tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store is a mutex-guarded map of byte values.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}
