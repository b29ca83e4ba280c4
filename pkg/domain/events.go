package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventObjectCreated      EventType = "object_created"
	EventTransition         EventType = "transition"
	EventTransitionRejected EventType = "transition_rejected"
	EventNotification       EventType = "notification"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"type"`
	DefinitionID string    `json:"definition_id"`
	ObjectID     string    `json:"object_id"`
}

// ObjectEvent is emitted when a case is created.
type ObjectEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// TransitionEvent is emitted after a successful transition.
type TransitionEvent struct {
	EventBase
	EdgeID     string `json:"edge_id"`
	Action     string `json:"action"`
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	Actor      string `json:"actor,omitempty"`
	Completed  bool   `json:"completed"`
}

// RejectionEvent is emitted when a transition precondition fails.
type RejectionEvent struct {
	EventBase
	EdgeID string `json:"edge_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// NotificationFired is emitted for each notification attached to an audit entry.
type NotificationFired struct {
	EventBase
	Notification NotificationEvent `json:"notification"`
}

// LifecycleHooks defines callbacks for runtime observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnObjectCreated func(context.Context, *ObjectEvent)
	OnTransition    func(context.Context, *TransitionEvent)
	OnRejected      func(context.Context, *RejectionEvent)
	OnNotification  func(context.Context, *NotificationFired)
}

// Merge combines several hook sets; each callback fans out in order.
func Merge(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnObjectCreated != nil {
			prev := out.OnObjectCreated
			out.OnObjectCreated = func(ctx context.Context, e *ObjectEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnObjectCreated(ctx, e)
			}
		}
		if h.OnTransition != nil {
			prev := out.OnTransition
			out.OnTransition = func(ctx context.Context, e *TransitionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTransition(ctx, e)
			}
		}
		if h.OnRejected != nil {
			prev := out.OnRejected
			out.OnRejected = func(ctx context.Context, e *RejectionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRejected(ctx, e)
			}
		}
		if h.OnNotification != nil {
			prev := out.OnNotification
			out.OnNotification = func(ctx context.Context, e *NotificationFired) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnNotification(ctx, e)
			}
		}
	}
	return out
}
