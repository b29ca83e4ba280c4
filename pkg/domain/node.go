package domain

// NodeKind classifies a status in the SOP graph.
type NodeKind string

const (
	// NodeKindStart is the single entry point of a Definition.
	NodeKindStart NodeKind = "start"
	// NodeKindStatus is an ordinary resting state.
	NodeKindStatus NodeKind = "status"
	// NodeKindDecision is a branching point; it behaves like a status at runtime.
	NodeKindDecision NodeKind = "decision"
	// NodeKindEnd is a sink. Objects resting here are complete.
	NodeKindEnd NodeKind = "end"
)

// RequiredProperty declares a property the case must carry while in a status.
type RequiredProperty struct {
	PropertyName string `json:"propertyName" yaml:"propertyName" mapstructure:"propertyName" validate:"required"`
	Required     bool   `json:"required" yaml:"required" mapstructure:"required"`
}

// Node represents a status in the graph.
type Node struct {
	ID          string   `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Kind        NodeKind `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=start status decision end"`
	Label       string   `json:"label" yaml:"label" mapstructure:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// SLAHours is advisory. The runtime never enforces it.
	SLAHours *float64 `json:"slaHours,omitempty" yaml:"slaHours,omitempty" mapstructure:"slaHours" validate:"omitempty,gte=0"`

	RequiredProperties []RequiredProperty `json:"requiredProperties,omitempty" yaml:"requiredProperties,omitempty" mapstructure:"requiredProperties" validate:"dive"`
	Notifications      NodeNotifications  `json:"notifications,omitempty" yaml:"notifications,omitempty" mapstructure:"notifications"`

	// SubSOPID references a nested Definition. It is an opaque foreign key here.
	SubSOPID string `json:"subSopId,omitempty" yaml:"subSopId,omitempty" mapstructure:"subSopId"`
}

// IsStart reports whether the node is an entry point.
func (n Node) IsStart() bool { return n.Kind == NodeKindStart }

// IsEnd reports whether the node is a sink.
func (n Node) IsEnd() bool { return n.Kind == NodeKindEnd }

// DisplayLabel falls back to the ID when the label is blank.
func (n Node) DisplayLabel() string {
	if n.Label == "" {
		return n.ID
	}
	return n.Label
}
