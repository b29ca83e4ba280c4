package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
)

// Mask replaces sensitive values in stored objects.
const Mask = "***"

// Masker hides audit field values whose names match any of its patterns.
// Masking is one-way: the original value cannot be recovered.
type Masker struct {
	patterns []*regexp.Regexp
}

// NewMasker compiles the field-name patterns.
func NewMasker(patternStrings []string) (*Masker, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return &Masker{patterns: patterns}, nil
}

// MaskEntry returns a copy of entry with matching field values masked.
func (m *Masker) MaskEntry(entry domain.AuditEntry) domain.AuditEntry {
	out := entry.Clone()
	maskMap(out.FieldValues, m.patterns)
	return out
}

// MaskObject returns a copy of obj whose audit trail is masked.
func (m *Masker) MaskObject(obj *domain.Object) *domain.Object {
	if obj == nil {
		return nil
	}
	out := obj.Clone()
	for i := range out.Audit {
		maskMap(out.Audit[i].FieldValues, m.patterns)
	}
	return out
}

// Middleware masks objects before they reach the wrapped store.
func (m *Masker) Middleware() Middleware {
	return func(next ports.ObjectStore) ports.ObjectStore {
		return &piiMiddleware{next: next, masker: m}
	}
}

type piiMiddleware struct {
	next   ports.ObjectStore
	masker *Masker
}

// NewPIIMiddleware creates a store middleware that masks audit field values
// whose names match any of the patterns. It only covers the store; the
// engine option sopflow.WithPIIFields also masks the audit log and change
// notifications.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	m, err := NewMasker(patternStrings)
	if err != nil {
		return nil, err
	}
	return m.Middleware(), nil
}

func (m *piiMiddleware) Save(ctx context.Context, obj *domain.Object) error {
	// The caller's object keeps its real values.
	return m.next.Save(ctx, m.masker.MaskObject(obj))
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Object, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(values map[string]any, patterns []*regexp.Regexp) {
	for k, v := range values {
		for _, p := range patterns {
			if p.MatchString(k) {
				values[k] = Mask
				break
			}
		}

		if sub, ok := v.(map[string]any); ok && values[k] != Mask {
			copied := make(map[string]any, len(sub))
			for sk, sv := range sub {
				copied[sk] = sv
			}
			maskMap(copied, patterns)
			values[k] = copied
		}
	}
}
