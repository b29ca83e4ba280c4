package memory

import (
	"context"
	"sync"

	"github.com/aretw0/sopflow/pkg/domain"
)

type auditRecord struct {
	definitionID string
	entry        domain.AuditEntry
}

// AuditLog implements ports.AuditLog in memory.
type AuditLog struct {
	mu      sync.RWMutex
	records []auditRecord
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Append records entries in order.
func (l *AuditLog) Append(ctx context.Context, definitionID string, entries ...domain.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		l.records = append(l.records, auditRecord{definitionID: definitionID, entry: e.Clone()})
	}
	return nil
}

// ListByObject returns the entries of one object.
func (l *AuditLog) ListByObject(ctx context.Context, objectID string) ([]domain.AuditEntry, error) {
	return l.filter(func(r auditRecord) bool { return r.entry.ObjectID == objectID }), nil
}

// ListByDefinition returns the entries of every object of one definition.
func (l *AuditLog) ListByDefinition(ctx context.Context, definitionID string) ([]domain.AuditEntry, error) {
	return l.filter(func(r auditRecord) bool { return r.definitionID == definitionID }), nil
}

func (l *AuditLog) filter(keep func(auditRecord) bool) []domain.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []domain.AuditEntry{}
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r.entry.Clone())
		}
	}
	return out
}
