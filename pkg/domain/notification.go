package domain

// Channel is an outbound medium for a simulated notification.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
	ChannelInApp   Channel = "in_app"
)

// Recipient selects who a notification is addressed to.
type Recipient string

const (
	RecipientOwner    Recipient = "owner"
	RecipientAssignee Recipient = "assignee"
	RecipientAdmin    Recipient = "admin"
	RecipientCustom   Recipient = "custom"
)

// NotificationSpec configures one simulated notification.
type NotificationSpec struct {
	Enabled   bool      `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Channels  []Channel `json:"channels,omitempty" yaml:"channels,omitempty" mapstructure:"channels" validate:"dive,oneof=email sms webhook in_app"`
	Recipient Recipient `json:"recipient,omitempty" yaml:"recipient,omitempty" mapstructure:"recipient" validate:"omitempty,oneof=owner assignee admin custom"`
	Template  string    `json:"template,omitempty" yaml:"template,omitempty" mapstructure:"template"`
}

// active reports whether a spec is present and enabled.
func (s *NotificationSpec) active() bool {
	return s != nil && s.Enabled
}

// NodeNotificationEvent is the closed set of node-level triggers.
type NodeNotificationEvent string

const (
	OnEnter   NodeNotificationEvent = "onEnter"
	OnExit    NodeNotificationEvent = "onExit"
	OnTimeout NodeNotificationEvent = "onTimeout"
)

// EdgeNotificationEvent is the closed set of edge-level triggers.
type EdgeNotificationEvent string

const (
	OnTrigger EdgeNotificationEvent = "onTrigger"
)

// NodeNotifications holds the per-trigger specs of a node.
type NodeNotifications struct {
	OnEnter   *NotificationSpec `json:"onEnter,omitempty" yaml:"onEnter,omitempty" mapstructure:"onEnter"`
	OnExit    *NotificationSpec `json:"onExit,omitempty" yaml:"onExit,omitempty" mapstructure:"onExit"`
	OnTimeout *NotificationSpec `json:"onTimeout,omitempty" yaml:"onTimeout,omitempty" mapstructure:"onTimeout"`
}

// For returns the spec configured for evt, or nil.
func (n NodeNotifications) For(evt NodeNotificationEvent) *NotificationSpec {
	switch evt {
	case OnEnter:
		return n.OnEnter
	case OnExit:
		return n.OnExit
	case OnTimeout:
		return n.OnTimeout
	}
	return nil
}

// Active returns the spec for evt only when it is enabled.
func (n NodeNotifications) Active(evt NodeNotificationEvent) (*NotificationSpec, bool) {
	spec := n.For(evt)
	return spec, spec.active()
}

// EdgeNotifications holds the per-trigger specs of an edge.
type EdgeNotifications struct {
	OnTrigger *NotificationSpec `json:"onTrigger,omitempty" yaml:"onTrigger,omitempty" mapstructure:"onTrigger"`
}

// For returns the spec configured for evt, or nil.
func (n EdgeNotifications) For(evt EdgeNotificationEvent) *NotificationSpec {
	switch evt {
	case OnTrigger:
		return n.OnTrigger
	}
	return nil
}

// Active returns the spec for evt only when it is enabled.
func (n EdgeNotifications) Active(evt EdgeNotificationEvent) (*NotificationSpec, bool) {
	spec := n.For(evt)
	return spec, spec.active()
}

// NotificationKind tells where a NotificationEvent originated.
type NotificationKind string

const (
	NotificationAction    NotificationKind = "action"
	NotificationNodeExit  NotificationKind = "node-exit"
	NotificationNodeEnter NotificationKind = "node-enter"
)

// Context keys captured at trigger time.
const (
	ContextKeyAction     = "action"
	ContextKeyFromStatus = "fromStatus"
	ContextKeyToStatus   = "toStatus"
	ContextKeyNodeLabel  = "nodeLabel"
)

// NotificationEvent is a runtime instance of a NotificationSpec firing.
type NotificationEvent struct {
	Kind     NotificationKind `json:"kind"`
	EventKey string           `json:"eventKey"`

	Enabled   bool      `json:"enabled"`
	Channels  []Channel `json:"channels,omitempty"`
	Recipient Recipient `json:"recipient,omitempty"`
	Template  string    `json:"template,omitempty"`

	Context map[string]string `json:"context,omitempty"`
}

// Spec returns the originating NotificationSpec fields as a value.
func (e NotificationEvent) Spec() NotificationSpec {
	return NotificationSpec{
		Enabled:   e.Enabled,
		Channels:  append([]Channel(nil), e.Channels...),
		Recipient: e.Recipient,
		Template:  e.Template,
	}
}

// NewNotificationEvent copies spec into a new event so later edits to the
// definition cannot leak into recorded history.
func NewNotificationEvent(kind NotificationKind, key string, spec *NotificationSpec, ctx map[string]string) NotificationEvent {
	return NotificationEvent{
		Kind:      kind,
		EventKey:  key,
		Enabled:   spec.Enabled,
		Channels:  append([]Channel(nil), spec.Channels...),
		Recipient: spec.Recipient,
		Template:  spec.Template,
		Context:   ctx,
	}
}
