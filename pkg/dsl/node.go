package dsl

import "github.com/aretw0/sopflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a status.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Describe sets the description.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	n.node.Description = description
	return n
}

// SLA sets the advisory number of hours a case should rest here.
func (n *NodeBuilder) SLA(hours float64) *NodeBuilder {
	n.node.SLAHours = &hours
	return n
}

// Requires declares properties the case must carry while in this status.
func (n *NodeBuilder) Requires(properties ...string) *NodeBuilder {
	for _, p := range properties {
		n.node.RequiredProperties = append(n.node.RequiredProperties, domain.RequiredProperty{PropertyName: p, Required: true})
	}
	return n
}

// SubSOP links a nested definition.
func (n *NodeBuilder) SubSOP(definitionID string) *NodeBuilder {
	n.node.SubSOPID = definitionID
	return n
}

// OnEnter sets the notification fired when a case enters this status.
func (n *NodeBuilder) OnEnter(spec *domain.NotificationSpec) *NodeBuilder {
	n.node.Notifications.OnEnter = spec
	return n
}

// OnExit sets the notification fired when a case leaves this status.
func (n *NodeBuilder) OnExit(spec *domain.NotificationSpec) *NodeBuilder {
	n.node.Notifications.OnExit = spec
	return n
}

// OnTimeout sets the notification configured for an SLA breach.
func (n *NodeBuilder) OnTimeout(spec *domain.NotificationSpec) *NodeBuilder {
	n.node.Notifications.OnTimeout = spec
	return n
}

// Action adds an action leaving this status.
func (n *NodeBuilder) Action(id, target string) *EdgeBuilder {
	return n.builder.Action(id, n.node.ID, target)
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	node := n.node
	node.RequiredProperties = append([]domain.RequiredProperty(nil), n.node.RequiredProperties...)
	return node
}

// EdgeBuilder provides a fluent API for configuring an action.
type EdgeBuilder struct {
	edge domain.Edge
}

// Label sets the display label.
func (e *EdgeBuilder) Label(label string) *EdgeBuilder {
	e.edge.Label = label
	return e
}

// Describe sets the description.
func (e *EdgeBuilder) Describe(description string) *EdgeBuilder {
	e.edge.Description = description
	return e
}

// Roles restricts who may take the action.
func (e *EdgeBuilder) Roles(roles ...string) *EdgeBuilder {
	e.edge.RequiredRoles = append(e.edge.RequiredRoles, roles...)
	return e
}

// Field requires a value. typ may be empty.
func (e *EdgeBuilder) Field(name, typ string) *EdgeBuilder {
	e.edge.RequiredFields = append(e.edge.RequiredFields, domain.FieldRequirement{Name: name, Type: typ})
	return e
}

// Document requires an attachment. typ may be empty.
func (e *EdgeBuilder) Document(name, typ string) *EdgeBuilder {
	e.edge.RequiredDocuments = append(e.edge.RequiredDocuments, domain.DocumentRequirement{Name: name, Type: typ})
	return e
}

// OnTrigger sets the notification fired when the action is taken.
func (e *EdgeBuilder) OnTrigger(spec *domain.NotificationSpec) *EdgeBuilder {
	e.edge.Notifications.OnTrigger = spec
	return e
}

// Build returns a copy of the underlying domain.Edge.
func (e *EdgeBuilder) Build() domain.Edge {
	edge := e.edge
	edge.RequiredRoles = append([]string(nil), e.edge.RequiredRoles...)
	edge.RequiredFields = append([]domain.FieldRequirement(nil), e.edge.RequiredFields...)
	edge.RequiredDocuments = append([]domain.DocumentRequirement(nil), e.edge.RequiredDocuments...)
	return edge
}
