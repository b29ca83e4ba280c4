package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sopflow/pkg/domain"
)

// LoggingHooks writes lifecycle events to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnObjectCreated: func(ctx context.Context, e *domain.ObjectEvent) {
			logger.InfoContext(ctx, "object_created",
				"definition_id", e.DefinitionID,
				"object_id", e.ObjectID,
				"node_id", e.NodeID,
			)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"object_id", e.ObjectID,
				"action", e.Action,
				"from", e.FromNodeID,
				"to", e.ToNodeID,
				"actor", e.Actor,
				"completed", e.Completed,
			)
		},
		OnRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			logger.WarnContext(ctx, "transition_rejected",
				"object_id", e.ObjectID,
				"edge_id", e.EdgeID,
				"reason", e.Reason,
			)
		},
		OnNotification: func(ctx context.Context, e *domain.NotificationFired) {
			logger.DebugContext(ctx, "notification",
				"object_id", e.ObjectID,
				"kind", e.Notification.Kind,
				"event", e.Notification.EventKey,
				"channels", e.Notification.Channels,
			)
		},
	}
}
