package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Store implements ports.ObjectStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Object
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Object),
	}
}

// Save persists the object in memory.
func (s *Store) Save(ctx context.Context, obj *domain.Object) error {
	if obj == nil || obj.ID == "" {
		return fmt.Errorf("object ID cannot be empty")
	}
	// Deep copy to ensure isolation, similar to serialization
	copied := obj.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[obj.ID] = copied
	return nil
}

// Load retrieves the object from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.data[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return obj.Clone(), nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored object IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
