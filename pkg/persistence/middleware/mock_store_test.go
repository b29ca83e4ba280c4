package middleware_test

import (
	"context"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect what was written.
type MockStore struct {
	data map[string]*domain.Object
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Object),
	}
}

func (s *MockStore) Save(ctx context.Context, obj *domain.Object) error {
	s.data[obj.ID] = obj
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (*domain.Object, error) {
	obj, ok := s.data[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return obj, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.ObjectStore = (*MockStore)(nil)

func sampleObject(id string) *domain.Object {
	return &domain.Object{
		ID:            id,
		DefinitionID:  "kyc",
		Name:          "Customer 7",
		CurrentNodeID: "verify",
		Path:          []domain.PathEntry{{NodeID: "start"}, {NodeID: "verify", EdgeID: "submit"}},
		Audit: []domain.AuditEntry{{
			ID:     "a1",
			Action: "Submit",
			FieldValues: map[string]any{
				"username":      "jdoe",
				"user_password": "secret123",
				"details": map[string]any{
					"address":    "123 St",
					"ssn_number": "999-99-9999",
				},
			},
		}},
	}
}
