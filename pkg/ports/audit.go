package ports

import (
	"context"

	"github.com/aretw0/sopflow/pkg/domain"
)

// AuditLog is an append-only record of executed transitions.
// Entries are also carried on the object itself; the log exists so exports and
// reports can query history without loading every case.
type AuditLog interface {
	// Append records entries in order.
	Append(ctx context.Context, definitionID string, entries ...domain.AuditEntry) error

	// ListByObject returns the entries recorded for one object, oldest first.
	ListByObject(ctx context.Context, objectID string) ([]domain.AuditEntry, error)

	// ListByDefinition returns the entries recorded for every object of a definition, oldest first.
	ListByDefinition(ctx context.Context, definitionID string) ([]domain.AuditEntry, error)
}
