package runtime_test

import (
	"fmt"
	"time"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// newTestEngine returns an engine with a fixed clock and sequential ids.
func newTestEngine(opts ...runtime.EngineOption) *runtime.Engine {
	n := 0
	base := []runtime.EngineOption{
		runtime.WithClock(func() time.Time { return fixedNow }),
		runtime.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	return runtime.NewEngine(append(base, opts...)...)
}

// reviewFlow is Start -> Draft -> Review -> End with a required
// Justification on the Draft -> Review action.
func reviewFlow() *domain.Definition {
	return &domain.Definition{
		ID:   "review",
		Name: "Document Review",
		Nodes: []domain.Node{
			{ID: "S", Kind: domain.NodeKindStart, Label: "Start"},
			{ID: "D", Kind: domain.NodeKindStatus, Label: "Draft"},
			{ID: "R", Kind: domain.NodeKindStatus, Label: "Review"},
			{ID: "E", Kind: domain.NodeKindEnd, Label: "End"},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "S", Target: "D", Label: "Begin"},
			{ID: "e2", Source: "D", Target: "R", Label: "Submit", RequiredFields: []domain.FieldRequirement{{Name: "Justification", Type: "text"}}},
			{ID: "e3", Source: "R", Target: "E", Label: "Approve"},
		},
	}
}

// chain builds Start -> n1 -> ... -> End with k edges.
func chain(k int) *domain.Definition {
	def := &domain.Definition{ID: fmt.Sprintf("chain-%d", k)}
	ids := make([]string, k+1)
	for i := 0; i <= k; i++ {
		ids[i] = fmt.Sprintf("n%d", i)
		kind := domain.NodeKindStatus
		switch i {
		case 0:
			kind = domain.NodeKindStart
		case k:
			kind = domain.NodeKindEnd
		}
		def.Nodes = append(def.Nodes, domain.Node{ID: ids[i], Kind: kind, Label: fmt.Sprintf("Node %d", i)})
	}
	for i := 0; i < k; i++ {
		def.Edges = append(def.Edges, domain.Edge{ID: fmt.Sprintf("e%d", i+1), Source: ids[i], Target: ids[i+1], Label: fmt.Sprintf("Step %d", i+1)})
	}
	return def
}

func enabled(channels ...domain.Channel) *domain.NotificationSpec {
	return &domain.NotificationSpec{
		Enabled:   true,
		Channels:  channels,
		Recipient: domain.RecipientOwner,
		Template:  "{objectName} moved",
	}
}
