package tui_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aretw0/sopflow/internal/presentation/tui"
	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseFlow() *domain.Definition {
	return &domain.Definition{
		ID:   "purchase",
		Name: "Purchase Request",
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.NodeKindStart, Label: "Start"},
			{ID: "draft", Kind: domain.NodeKindStatus, Label: "Draft"},
			{ID: "done", Kind: domain.NodeKindEnd, Label: "Ordered"},
		},
		Edges: []domain.Edge{
			{ID: "open", Source: "start", Target: "draft", Label: "Open", Notifications: domain.EdgeNotifications{
				OnTrigger: &domain.NotificationSpec{
					Enabled:   true,
					Channels:  []domain.Channel{domain.ChannelEmail},
					Recipient: domain.RecipientOwner,
					Template:  "{objectName} moved to {toStatus}",
				},
			}},
			{ID: "order", Source: "draft", Target: "done", Label: "Order",
				RequiredRoles:     []string{"buyer"},
				RequiredFields:    []domain.FieldRequirement{{Name: "Vendor"}, {Name: "Amount"}},
				RequiredDocuments: []domain.DocumentRequirement{{Name: "Quote"}},
			},
		},
	}
}

func TestCaseReport(t *testing.T) {
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	eng := runtime.NewEngine(runtime.WithClock(func() time.Time { return now }))
	def := purchaseFlow()
	ctx := context.Background()

	obj, err := eng.CreateObject(ctx, def, "Chairs", "")
	require.NoError(t, err)
	res, err := eng.Transition(ctx, def, obj, runtime.TransitionRequest{EdgeID: "open", Actor: "ana"})
	require.NoError(t, err)

	md := tui.CaseReport(def, res.Object, "")

	assert.Contains(t, md, "# Chairs")
	assert.Contains(t, md, "- **SOP:** Purchase Request")
	assert.Contains(t, md, "- **Status:** Draft")
	assert.Contains(t, md, "- **Progress:** 50% (1/2)")
	assert.Contains(t, md, "`order` **Order** → Ordered (roles: buyer; fields: Amount, Vendor; documents: Quote)")
	assert.Contains(t, md, "| 2026-05-06 07:08:09 | Open | Start | Draft | ana | 1 |")
	assert.Contains(t, md, "📧 [Email] To: Object Owner | Status update: Chairs | Chairs moved to Draft")
}

func TestCaseReport_RoleFiltersActions(t *testing.T) {
	eng := runtime.NewEngine()
	def := purchaseFlow()
	obj, err := eng.CreateObject(context.Background(), def, "", "")
	require.NoError(t, err)
	obj.CurrentNodeID = "draft"

	assert.Contains(t, tui.CaseReport(def, obj, "buyer"), "Available actions")
	assert.NotContains(t, tui.CaseReport(def, obj, "guest"), "Available actions")
	assert.Contains(t, tui.CaseReport(def, obj, ""), "# "+obj.ID)
}

func TestCaseReport_Complete(t *testing.T) {
	def := purchaseFlow()
	obj := &domain.Object{
		ID:            "c1",
		Name:          "Done",
		CurrentNodeID: "done",
		IsComplete:    true,
		Path:          []domain.PathEntry{{NodeID: "start"}, {NodeID: "draft"}, {NodeID: "done"}},
	}
	md := tui.CaseReport(def, obj, "")
	assert.Contains(t, md, "- **Progress:** complete")
	assert.NotContains(t, md, "Available actions")
}

func TestWrite_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))
	require.NoError(t, tui.Write(&buf, "# Title\n"))
	assert.Equal(t, "# Title\n", buf.String())
}
