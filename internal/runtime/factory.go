package runtime

import (
	"context"

	"github.com/aretw0/sopflow/pkg/domain"
)

// CreateObject creates a new case positioned on the definition's start node.
// It fails with a *domain.ConfigurationError, before allocating anything, when
// the definition has no start node.
func (e *Engine) CreateObject(ctx context.Context, def *domain.Definition, name, color string) (*domain.Object, error) {
	if def == nil {
		return nil, &domain.ConfigurationError{Cause: domain.ErrNoStartNode, Message: "SOP has no Start node"}
	}
	start, ok := def.StartNode()
	if !ok {
		return nil, &domain.ConfigurationError{Cause: domain.ErrNoStartNode, Message: "SOP has no Start node"}
	}

	now := e.clock()
	obj := &domain.Object{
		ID:            e.newID(),
		DefinitionID:  def.ID,
		Name:          name,
		Color:         color,
		CurrentNodeID: start.ID,
		Path:          []domain.PathEntry{{NodeID: start.ID, Timestamp: now}},
		Audit:         []domain.AuditEntry{},
		IsComplete:    false,
		CreatedAt:     now,
	}

	e.logger.DebugContext(ctx, "object created", "object_id", obj.ID, "definition_id", def.ID, "node_id", start.ID)
	if e.hooks.OnObjectCreated != nil {
		e.hooks.OnObjectCreated(ctx, &domain.ObjectEvent{
			EventBase: domain.EventBase{
				Timestamp:    now,
				Type:         domain.EventObjectCreated,
				DefinitionID: def.ID,
				ObjectID:     obj.ID,
			},
			NodeID: start.ID,
		})
	}

	return obj, nil
}
