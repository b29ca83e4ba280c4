package ports

import (
	"context"

	"github.com/aretw0/sopflow/pkg/domain"
)

// DefinitionLoader defines how SOP definitions are retrieved.
// This allows the storage layer (files, memory) to be decoupled from the runtime.
type DefinitionLoader interface {
	// GetDefinition returns the definition with the given ID.
	// Returns domain.ErrDefinitionNotFound if it does not exist.
	GetDefinition(ctx context.Context, id string) (*domain.Definition, error)

	// ListDefinitions returns the IDs of all available definitions, sorted.
	ListDefinitions(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload while editing definitions.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definitions change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
