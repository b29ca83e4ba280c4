package runtime_test

import (
	"errors"
	"testing"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		def    *domain.Definition
		valid  bool
		errors []string
	}{
		{
			name:  "Minimal Connected",
			def:   reviewFlow(),
			valid: true,
		},
		{
			name: "No Start Node",
			def: &domain.Definition{
				Nodes: []domain.Node{
					{ID: "a", Kind: domain.NodeKindStatus, Label: "A"},
					{ID: "z", Kind: domain.NodeKindEnd, Label: "Done"},
				},
				Edges: []domain.Edge{{ID: "e", Source: "a", Target: "z"}},
			},
			errors: []string{"SOP must have at least one Start node"},
		},
		{
			name: "Two Start Nodes",
			def: &domain.Definition{
				Nodes: []domain.Node{
					{ID: "s1", Kind: domain.NodeKindStart, Label: "One"},
					{ID: "s2", Kind: domain.NodeKindStart, Label: "Two"},
					{ID: "z", Kind: domain.NodeKindEnd, Label: "Done"},
				},
				Edges: []domain.Edge{
					{ID: "e1", Source: "s1", Target: "z"},
					{ID: "e2", Source: "s2", Target: "z"},
				},
			},
			errors: []string{"SOP should have only one Start node"},
		},
		{
			name:   "Empty Definition",
			def:    &domain.Definition{},
			errors: []string{"SOP must have at least one Start node", "SOP must have at least one End node"},
		},
		{
			name: "All Rules Reported In Order",
			def: &domain.Definition{
				Nodes: []domain.Node{
					{ID: "s", Kind: domain.NodeKindStart, Label: "Intake"},
					{ID: "x", Kind: domain.NodeKindStatus, Label: "Orphan"},
					{ID: "z", Kind: domain.NodeKindEnd, Label: "Closed"},
				},
			},
			errors: []string{
				`Start node "Intake" has no outgoing actions`,
				`End node "Closed" has no incoming actions`,
				`Status "Orphan" is not connected to anything`,
			},
		},
		{
			name: "Dangling Action",
			def: &domain.Definition{
				Nodes: []domain.Node{
					{ID: "s", Kind: domain.NodeKindStart, Label: "Start"},
					{ID: "z", Kind: domain.NodeKindEnd, Label: "End"},
				},
				Edges: []domain.Edge{
					{ID: "e1", Source: "s", Target: "z", Label: "Finish"},
					{ID: "e2", Source: "s", Target: "ghost", Label: "Haunt"},
				},
			},
			errors: []string{`Action "Haunt" references unknown status "ghost"`},
		},
		{
			name: "Unlabelled Node Uses ID",
			def: &domain.Definition{
				Nodes: []domain.Node{
					{ID: "s", Kind: domain.NodeKindStart},
					{ID: "z", Kind: domain.NodeKindEnd, Label: "End"},
					{ID: "limbo", Kind: domain.NodeKindDecision},
				},
				Edges: []domain.Edge{{ID: "e1", Source: "s", Target: "z"}},
			},
			errors: []string{`Status "limbo" is not connected to anything`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runtime.Validate(tt.def)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				assert.NoError(t, res.Err(tt.def.ID))
				return
			}
			assert.Equal(t, tt.errors, res.Errors)
		})
	}
}

func TestValidate_NoStartMentionsStartNode(t *testing.T) {
	def := reviewFlow()
	def.Nodes[0].Kind = domain.NodeKindStatus

	res := runtime.Validate(def)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "Start node")
}

func TestValidate_NilDefinition(t *testing.T) {
	res := runtime.Validate(nil)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestValidationResult_Err(t *testing.T) {
	res := runtime.Validate(&domain.Definition{ID: "broken"})

	err := res.Err("broken")
	require.Error(t, err)

	var defErr *domain.DefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "broken", defErr.DefinitionID)
	assert.Equal(t, res.Errors, defErr.Problems)
	assert.Contains(t, err.Error(), "has 2 problems")
}
