package dsl

import (
	"fmt"

	"github.com/aretw0/sopflow/pkg/adapters/memory"
	"github.com/aretw0/sopflow/pkg/domain"
)

// Builder manages the definition construction.
// Nodes and actions keep the order in which they were first added.
type Builder struct {
	def   domain.Definition
	nodes []*NodeBuilder
	edges []*EdgeBuilder
	index map[string]*NodeBuilder
}

// New creates a new definition builder.
func New(id string) *Builder {
	return &Builder{
		def:   domain.Definition{ID: id},
		index: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the SOP.
func (b *Builder) Name(name string) *Builder {
	b.def.Name = name
	return b
}

// Describe sets the description of the SOP.
func (b *Builder) Describe(description string) *Builder {
	b.def.Description = description
	return b
}

// Add creates a new status of the given kind.
// If the status already exists, it returns the existing builder with the kind updated.
func (b *Builder) Add(id string, kind domain.NodeKind) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		nb.node.Kind = kind
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Kind: kind},
		builder: b,
	}
	b.index[id] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Start adds the entry point.
func (b *Builder) Start(id, label string) *NodeBuilder {
	return b.Add(id, domain.NodeKindStart).Label(label)
}

// Status adds an ordinary status.
func (b *Builder) Status(id, label string) *NodeBuilder {
	return b.Add(id, domain.NodeKindStatus).Label(label)
}

// Decision adds a branching status.
func (b *Builder) Decision(id, label string) *NodeBuilder {
	return b.Add(id, domain.NodeKindDecision).Label(label)
}

// End adds a sink.
func (b *Builder) End(id, label string) *NodeBuilder {
	return b.Add(id, domain.NodeKindEnd).Label(label)
}

// Action adds an action moving a case from source to target.
func (b *Builder) Action(id, source, target string) *EdgeBuilder {
	eb := &EdgeBuilder{edge: domain.Edge{ID: id, Source: source, Target: target}}
	b.edges = append(b.edges, eb)
	return eb
}

// Definition returns the definition built so far. Each call returns a fresh value.
func (b *Builder) Definition() *domain.Definition {
	def := b.def
	def.Nodes = make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		def.Nodes = append(def.Nodes, nb.Build())
	}
	def.Edges = make([]domain.Edge, 0, len(b.edges))
	for _, eb := range b.edges {
		def.Edges = append(def.Edges, eb.Build())
	}
	return &def
}

// Build compiles the definition into a memory Loader.
func (b *Builder) Build() (*memory.Loader, error) {
	loader, err := memory.NewLoader(b.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// Notify returns an enabled notification spec.
func Notify(recipient domain.Recipient, template string, channels ...domain.Channel) *domain.NotificationSpec {
	return &domain.NotificationSpec{
		Enabled:   true,
		Channels:  channels,
		Recipient: recipient,
		Template:  template,
	}
}
