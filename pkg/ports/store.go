package ports

import (
	"context"

	"github.com/aretw0/sopflow/pkg/domain"
)

// ObjectStore defines the interface for persisting case objects.
// The runtime never stores anything itself; callers pick a backend.
type ObjectStore interface {
	// Save persists the object under obj.ID, replacing any previous value.
	Save(ctx context.Context, obj *domain.Object) error

	// Load retrieves the object with the given ID.
	// Returns domain.ErrObjectNotFound if the object does not exist.
	Load(ctx context.Context, id string) (*domain.Object, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored objects.
	List(ctx context.Context) ([]string, error)
}
