package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu          sync.RWMutex
	definitions map[string]*domain.Definition
}

// NewLoader creates a new Loader holding the given definitions.
func NewLoader(defs ...*domain.Definition) (*Loader, error) {
	l := &Loader{definitions: make(map[string]*domain.Definition, len(defs))}
	for _, d := range defs {
		if err := l.Put(d); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put adds or replaces a definition.
func (l *Loader) Put(def *domain.Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition missing ID")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.definitions[def.ID] = copyDefinition(def)
	return nil
}

// GetDefinition retrieves a definition by ID.
func (l *Loader) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	def, ok := l.definitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	return copyDefinition(def), nil
}

// ListDefinitions returns all available definition IDs.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.definitions))
	for k := range l.definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// copyDefinition detaches the node and edge slices so callers cannot edit
// what the loader holds.
func copyDefinition(d *domain.Definition) *domain.Definition {
	out := *d
	out.Nodes = append([]domain.Node(nil), d.Nodes...)
	out.Edges = append([]domain.Edge(nil), d.Edges...)
	return &out
}
