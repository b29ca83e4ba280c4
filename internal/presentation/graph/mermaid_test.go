package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/sopflow/internal/presentation/graph"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	sla := 24.0
	tests := []struct {
		name     string
		def      *domain.Definition
		contains []string
	}{
		{
			name: "Node Shapes",
			def: &domain.Definition{Nodes: []domain.Node{
				{ID: "s", Kind: domain.NodeKindStart, Label: "Start"},
				{ID: "d", Kind: domain.NodeKindDecision, Label: "OK?"},
				{ID: "r", Kind: domain.NodeKindStatus, Label: "Review"},
				{ID: "e", Kind: domain.NodeKindEnd, Label: "Done"},
			}},
			contains: []string{
				`s(("Start"))`,
				`d{"OK?"}`,
				`r["Review"]`,
				`e((("Done")))`,
			},
		},
		{
			name: "Unlabelled Node Uses ID",
			def: &domain.Definition{Nodes: []domain.Node{
				{ID: "limbo", Kind: domain.NodeKindStatus},
			}},
			contains: []string{`limbo["limbo"]`},
		},
		{
			name: "SLA Annotation",
			def: &domain.Definition{Nodes: []domain.Node{
				{ID: "r", Kind: domain.NodeKindStatus, Label: "Review", SLAHours: &sla},
			}},
			contains: []string{`r["Review <br/> ⏱️ 24h"]`},
		},
		{
			name: "ID Sanitization",
			def: &domain.Definition{Nodes: []domain.Node{
				{ID: "path/to/file.md", Kind: domain.NodeKindStatus, Label: "File"},
				{ID: "hyphen-ated", Kind: domain.NodeKindStatus, Label: "Hyphen"},
			}},
			contains: []string{
				`path_to_file_md["File"]`,
				`hyphen_ated["Hyphen"]`,
			},
		},
		{
			name: "Edge Labels",
			def: &domain.Definition{Edges: []domain.Edge{
				{ID: "e1", Source: "a", Target: "b", Label: `Say "yes"`},
				{ID: "e2", Source: "b", Target: "c"},
				{ID: "e3", Source: "c", Target: "d", Label: "Approve", RequiredRoles: []string{"manager", "cfo"}},
			}},
			contains: []string{
				`a -- "Say 'yes'" --> b`,
				`b --> c`,
				`c -- "Approve 🔒 manager,cfo" --> d`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.def, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	def := &domain.Definition{
		Nodes: []domain.Node{
			{ID: "s", Kind: domain.NodeKindStart},
			{ID: "a", Kind: domain.NodeKindStatus},
			{ID: "b", Kind: domain.NodeKindStatus},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "s", Target: "a"},
			{ID: "e2", Source: "a", Target: "b"},
			{ID: "e3", Source: "b", Target: "a"},
		},
	}
	obj := &domain.Object{
		CurrentNodeID: "b",
		Path: []domain.PathEntry{
			{NodeID: "s"}, {NodeID: "a", EdgeID: "e1"}, {NodeID: "b", EdgeID: "e2"},
			{NodeID: "a", EdgeID: "e3"}, {NodeID: "b", EdgeID: "e2"},
		},
	}

	got := graph.GenerateMermaid(def, graph.OverlayFor(obj))

	assert.Contains(t, got, "classDef visited")
	assert.Equal(t, 1, strings.Count(got, "class a visited;"), "visited nodes are deduplicated")
	assert.Contains(t, got, "class s visited;")
	assert.Contains(t, got, "class b current;")
}

func TestOverlayFor_Nil(t *testing.T) {
	assert.Nil(t, graph.OverlayFor(nil))
	assert.Equal(t, "graph TD\n", graph.GenerateMermaid(nil, nil))
}
