package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/schema"
)

// TransitionRequest carries what the caller collected for one action.
type TransitionRequest struct {
	EdgeID            string         `json:"edgeId"`
	FieldValues       map[string]any `json:"fieldValues,omitempty"`
	DocumentsAttached []string       `json:"documentsAttached,omitempty"`
	Actor             string         `json:"actor"`
	Role              string         `json:"role,omitempty"`
}

// TransitionResult is the outcome of a successful Transition.
type TransitionResult struct {
	Object        *domain.Object             `json:"object"`
	Entry         domain.AuditEntry          `json:"entry"`
	Notifications []domain.NotificationEvent `json:"notifications"`
}

// Transition applies one action to an object and returns the next object value.
//
// Preconditions are checked in a fixed order and the first one that fails is
// returned as a *domain.TransitionError. Neither obj nor def is ever modified:
// on success the result carries a fresh copy, on failure nothing is produced.
func (e *Engine) Transition(ctx context.Context, def *domain.Definition, obj *domain.Object, req TransitionRequest) (*TransitionResult, error) {
	if def == nil || obj == nil {
		return nil, &domain.TransitionError{Cause: domain.ErrInvalidAction, EdgeID: req.EdgeID, Message: "Invalid action"}
	}

	edge, fromNode, toNode, err := e.checkPreconditions(def, obj, req)
	if err != nil {
		e.reject(ctx, def, obj, req.EdgeID, err)
		return nil, err
	}

	now := e.clock()
	notifications := composeNotifications(edge, fromNode, toNode)

	entry := domain.AuditEntry{
		ID:                e.newID(),
		Timestamp:         now,
		ObjectID:          obj.ID,
		ObjectName:        obj.Name,
		FromNodeID:        fromNode.ID,
		FromStatusLabel:   fromNode.Label,
		Action:            edge.Label,
		ToNodeID:          toNode.ID,
		ToStatusLabel:     toNode.Label,
		FieldValues:       copyFields(req.FieldValues),
		Actor:             req.Actor,
		Role:              req.Role,
		DocumentsAttached: append([]string(nil), req.DocumentsAttached...),
		Notifications:     notifications,
	}

	next := obj.Clone()
	next.CurrentNodeID = toNode.ID
	next.Path = append(next.Path, domain.PathEntry{NodeID: toNode.ID, EdgeID: edge.ID, Timestamp: now})
	next.Audit = append(next.Audit, entry.Clone())
	next.IsComplete = toNode.IsEnd()

	e.logger.DebugContext(ctx, "transition applied",
		"object_id", obj.ID,
		"edge_id", edge.ID,
		"from", fromNode.ID,
		"to", toNode.ID,
		"notifications", len(notifications),
	)
	e.emit(ctx, def, next, edge, fromNode, toNode, req.Actor, notifications, now)

	return &TransitionResult{
		Object:        next,
		Entry:         entry,
		Notifications: notifications,
	}, nil
}

func (e *Engine) checkPreconditions(def *domain.Definition, obj *domain.Object, req TransitionRequest) (domain.Edge, domain.Node, domain.Node, error) {
	var none domain.Node

	edge, ok := def.EdgeByID(req.EdgeID)
	if !ok {
		return edge, none, none, &domain.TransitionError{Cause: domain.ErrInvalidAction, EdgeID: req.EdgeID, Message: "Invalid action"}
	}

	if edge.Source != obj.CurrentNodeID {
		return edge, none, none, &domain.TransitionError{Cause: domain.ErrActionUnavailable, EdgeID: edge.ID, Message: "Action not available from current state"}
	}

	if e.enforceRoles && !edge.AllowsRole(req.Role) {
		return edge, none, none, &domain.TransitionError{
			Cause:   domain.ErrRoleNotPermitted,
			EdgeID:  edge.ID,
			Message: fmt.Sprintf("Role %q is not permitted; requires one of: %s", req.Role, strings.Join(edge.RequiredRoles, ", ")),
			Missing: append([]string(nil), edge.RequiredRoles...),
		}
	}

	if missing := missingFields(edge.RequiredFields, req.FieldValues); len(missing) > 0 {
		return edge, none, none, &domain.TransitionError{
			Cause:   domain.ErrMissingFields,
			EdgeID:  edge.ID,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	if missing := missingDocuments(edge.RequiredDocuments, req.DocumentsAttached); len(missing) > 0 {
		return edge, none, none, &domain.TransitionError{
			Cause:   domain.ErrMissingDocuments,
			EdgeID:  edge.ID,
			Message: "Missing required documents: " + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	if e.checkFieldTypes {
		if err := e.checkFieldTypes(edge, req.FieldValues); err != nil {
			return edge, none, none, &domain.TransitionError{
				Cause:   domain.ErrInvalidFieldValue,
				EdgeID:  edge.ID,
				Message: "Invalid field values: " + err.Error(),
				Missing: schema.FailedFields(err),
			}
		}
	}

	fromNode, ok := def.NodeByID(edge.Source)
	if !ok {
		return edge, none, none, &domain.TransitionError{
			Cause:   fmt.Errorf("%w: %s", domain.ErrUnknownNode, edge.Source),
			EdgeID:  edge.ID,
			Message: fmt.Sprintf("Action references unknown status %q", edge.Source),
		}
	}
	toNode, ok := def.NodeByID(edge.Target)
	if !ok {
		return edge, none, none, &domain.TransitionError{
			Cause:   fmt.Errorf("%w: %s", domain.ErrUnknownNode, edge.Target),
			EdgeID:  edge.ID,
			Message: fmt.Sprintf("Action references unknown status %q", edge.Target),
		}
	}

	return edge, fromNode, toNode, nil
}

// composeNotifications builds the events in their fixed order:
// the action's own trigger, then leaving the source, then entering the target.
func composeNotifications(edge domain.Edge, from, to domain.Node) []domain.NotificationEvent {
	out := []domain.NotificationEvent{}

	if spec, ok := edge.Notifications.Active(domain.OnTrigger); ok {
		out = append(out, domain.NewNotificationEvent(domain.NotificationAction, string(domain.OnTrigger), spec, map[string]string{
			domain.ContextKeyAction:     edge.Label,
			domain.ContextKeyFromStatus: from.Label,
			domain.ContextKeyToStatus:   to.Label,
		}))
	}

	if spec, ok := from.Notifications.Active(domain.OnExit); ok {
		out = append(out, domain.NewNotificationEvent(domain.NotificationNodeExit, string(domain.OnExit), spec, map[string]string{
			domain.ContextKeyNodeLabel: from.Label,
		}))
	}

	if spec, ok := to.Notifications.Active(domain.OnEnter); ok {
		out = append(out, domain.NewNotificationEvent(domain.NotificationNodeEnter, string(domain.OnEnter), spec, map[string]string{
			domain.ContextKeyNodeLabel: to.Label,
		}))
	}

	return out
}

func missingFields(required []domain.FieldRequirement, values map[string]any) []string {
	var missing []string
	for _, f := range required {
		if isBlank(values[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

func missingDocuments(required []domain.DocumentRequirement, attached []string) []string {
	have := make(map[string]bool, len(attached))
	for _, name := range attached {
		have[name] = true
	}
	var missing []string
	for _, d := range required {
		if !have[d.Name] {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// checkFieldTypes validates values against the declared field types. Fields
// with a type the schema does not know are not checked.
func (e *Engine) checkFieldTypes(edge domain.Edge, values map[string]any) error {
	types := make(map[string]string, len(edge.RequiredFields))
	for _, f := range edge.RequiredFields {
		types[f.Name] = f.Type
	}
	s, unknown := schema.ParseTypeMap(types)
	if len(unknown) > 0 {
		sort.Strings(unknown)
		e.logger.Debug("field types not checked", "edge_id", edge.ID, "fields", unknown)
	}
	return schema.ValidatePresent(s, values)
}

func copyFields(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (e *Engine) reject(ctx context.Context, def *domain.Definition, obj *domain.Object, edgeID string, err error) {
	e.logger.DebugContext(ctx, "transition rejected", "object_id", obj.ID, "edge_id", edgeID, "error", err)
	if e.hooks.OnRejected == nil {
		return
	}
	e.hooks.OnRejected(ctx, &domain.RejectionEvent{
		EventBase: domain.EventBase{
			Timestamp:    e.clock(),
			Type:         domain.EventTransitionRejected,
			DefinitionID: def.ID,
			ObjectID:     obj.ID,
		},
		EdgeID: edgeID,
		Reason: err.Error(),
		Err:    err,
	})
}

func (e *Engine) emit(ctx context.Context, def *domain.Definition, obj *domain.Object, edge domain.Edge, from, to domain.Node, actor string, notifications []domain.NotificationEvent, now time.Time) {
	base := domain.EventBase{
		Timestamp:    now,
		DefinitionID: def.ID,
		ObjectID:     obj.ID,
	}

	if e.hooks.OnTransition != nil {
		evt := &domain.TransitionEvent{
			EventBase:  base,
			EdgeID:     edge.ID,
			Action:     edge.Label,
			FromNodeID: from.ID,
			ToNodeID:   to.ID,
			Actor:      actor,
			Completed:  obj.IsComplete,
		}
		evt.Type = domain.EventTransition
		e.hooks.OnTransition(ctx, evt)
	}

	if e.hooks.OnNotification != nil {
		for _, n := range notifications {
			evt := &domain.NotificationFired{EventBase: base, Notification: n}
			evt.Type = domain.EventNotification
			e.hooks.OnNotification(ctx, evt)
		}
	}
}
