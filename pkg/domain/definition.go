package domain

// Definition is the graph of statuses and actions making up one SOP.
// It is treated as immutable once handed to the runtime.
type Definition struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Nodes       []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes" validate:"unique=ID,dive"`
	Edges       []Edge `json:"edges" yaml:"edges" mapstructure:"edges" validate:"unique=ID,dive"`
}

// NodeByID returns the node with the given id.
func (d *Definition) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgeByID returns the edge with the given id.
func (d *Definition) EdgeByID(id string) (Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// NodesOfKind returns nodes of the given kind in declaration order.
func (d *Definition) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// StartNode returns the first start node, if any.
func (d *Definition) StartNode() (Node, bool) {
	for _, n := range d.Nodes {
		if n.IsStart() {
			return n, true
		}
	}
	return Node{}, false
}

// Outgoing returns the edges leaving nodeID in declaration order.
func (d *Definition) Outgoing(nodeID string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering nodeID in declaration order.
func (d *Definition) Incoming(nodeID string) []Edge {
	var in []Edge
	for _, e := range d.Edges {
		if e.Target == nodeID {
			in = append(in, e)
		}
	}
	return in
}
