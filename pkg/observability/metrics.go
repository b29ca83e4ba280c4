package observability

import (
	"context"
	"errors"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sopflow"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	ObjectsCreated *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	Completions    *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ObjectsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objects_created_total",
				Help:      "Total number of cases opened",
			},
			[]string{"definition_id"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of applied transitions",
			},
			[]string{"definition_id", "to_node_id"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objects_completed_total",
				Help:      "Total number of cases that reached an end node",
			},
			[]string{"definition_id"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_rejected_total",
				Help:      "Total number of transitions rejected by a precondition",
			},
			[]string{"definition_id", "reason"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of composed notification events",
			},
			[]string{"kind", "channel"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.ObjectsCreated, m.Transitions, m.Completions, m.Rejections, m.Notifications} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnObjectCreated: func(_ context.Context, e *domain.ObjectEvent) {
			m.ObjectsCreated.WithLabelValues(e.DefinitionID).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.DefinitionID, e.ToNodeID).Inc()
			if e.Completed {
				m.Completions.WithLabelValues(e.DefinitionID).Inc()
			}
		},
		OnRejected: func(_ context.Context, e *domain.RejectionEvent) {
			m.Rejections.WithLabelValues(e.DefinitionID, RejectionReason(e.Err)).Inc()
		},
		OnNotification: func(_ context.Context, e *domain.NotificationFired) {
			for _, ch := range e.Notification.Channels {
				m.Notifications.WithLabelValues(string(e.Notification.Kind), string(ch)).Inc()
			}
		},
	}
}

// RejectionReason maps a transition error to a low-cardinality label value.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, domain.ErrActionUnavailable):
		return "action_unavailable"
	case errors.Is(err, domain.ErrRoleNotPermitted):
		return "role_not_permitted"
	case errors.Is(err, domain.ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, domain.ErrMissingDocuments):
		return "missing_documents"
	case errors.Is(err, domain.ErrInvalidFieldValue):
		return "invalid_field_value"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrUnknownNode):
		return "unknown_node"
	default:
		return "other"
	}
}
