package runtime_test

import (
	"testing"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestAvailableActions(t *testing.T) {
	def := &domain.Definition{
		Nodes: []domain.Node{
			{ID: "s", Kind: domain.NodeKindStart},
			{ID: "d", Kind: domain.NodeKindDecision},
			{ID: "ok", Kind: domain.NodeKindEnd},
			{ID: "no", Kind: domain.NodeKindEnd},
		},
		Edges: []domain.Edge{
			{ID: "in", Source: "s", Target: "d"},
			{ID: "approve", Source: "d", Target: "ok", RequiredRoles: []string{"manager"}},
			{ID: "reject", Source: "d", Target: "no"},
		},
	}
	obj := &domain.Object{CurrentNodeID: "d"}

	ids := func(edges []domain.Edge) []string {
		var out []string
		for _, e := range edges {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"approve", "reject"}, ids(runtime.AvailableActions(def, obj, "")))
	assert.Equal(t, []string{"approve", "reject"}, ids(runtime.AvailableActions(def, obj, "manager")))
	assert.Equal(t, []string{"reject"}, ids(runtime.AvailableActions(def, obj, "clerk")))

	done := &domain.Object{CurrentNodeID: "ok", IsComplete: true}
	assert.Empty(t, runtime.AvailableActions(def, done, ""))
	assert.Empty(t, runtime.AvailableActions(nil, obj, ""))
}
