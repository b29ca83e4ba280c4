package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/sopflow/pkg/adapters/memory"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinitions() map[string]*domain.Definition {
	return map[string]*domain.Definition{
		"onboarding": {
			ID:   "onboarding",
			Name: "Onboarding",
			Nodes: []domain.Node{
				{ID: "s", Kind: domain.NodeKindStart, Label: "Start"},
				{ID: "e", Kind: domain.NodeKindEnd, Label: "Done"},
			},
			Edges: []domain.Edge{{ID: "go", Source: "s", Target: "e", Label: "Go"}},
		},
		"refund": {
			ID:    "refund",
			Name:  "Refund",
			Nodes: []domain.Node{{ID: "s", Kind: domain.NodeKindStart}},
		},
	}
}

func TestMemoryLoader_Contract(t *testing.T) {
	defs := sampleDefinitions()
	loader, err := memory.NewLoader(defs["onboarding"], defs["refund"])
	require.NoError(t, err)

	ports.RunDefinitionLoaderContract(t, loader, defs)
}

func TestMemoryLoader_Isolation(t *testing.T) {
	def := sampleDefinitions()["onboarding"]
	loader, err := memory.NewLoader(def)
	require.NoError(t, err)

	def.Nodes[0].Label = "changed after Put"
	got, err := loader.GetDefinition(context.Background(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "Start", got.Nodes[0].Label)

	got.Nodes[0].Label = "changed by caller"
	again, err := loader.GetDefinition(context.Background(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "Start", again.Nodes[0].Label)
}

func TestMemoryLoader_RejectsMissingID(t *testing.T) {
	_, err := memory.NewLoader(&domain.Definition{Name: "anonymous"})
	assert.Error(t, err)
}
