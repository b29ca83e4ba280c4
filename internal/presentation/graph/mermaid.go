package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/sopflow/pkg/domain"
)

// GraphOverlay contains dynamic case data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds the overlay of a case from its path.
func OverlayFor(obj *domain.Object) *GraphOverlay {
	if obj == nil {
		return nil
	}
	overlay := &GraphOverlay{CurrentNode: obj.CurrentNodeID}
	for _, p := range obj.Path {
		overlay.VisitedNodes = append(overlay.VisitedNodes, p.NodeID)
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a definition.
// It applies semantic styling:
// - Start: ((Circle))
// - End: (((Double Circle)))
// - Decision: {Rhombus}
// - Status: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil {
		return sb.String()
	}

	for _, node := range def.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeKindStart:
			opener, closer = "((", "))"
		case domain.NodeKindEnd:
			opener, closer = "(((", ")))"
		case domain.NodeKindDecision:
			opener, closer = "{", "}"
		}

		text := escapeLabel(node.DisplayLabel())
		if node.SLAHours != nil {
			// Annotate node with SLA clock icon
			text = fmt.Sprintf("%s <br/> ⏱️ %gh", text, *node.SLAHours)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, text, closer)
	}

	for _, edge := range def.Edges {
		from := sanitizeMermaidID(edge.Source)
		to := sanitizeMermaidID(edge.Target)

		label := escapeLabel(edge.Label)
		if len(edge.RequiredRoles) > 0 {
			label = strings.TrimSpace(fmt.Sprintf("%s 🔒 %s", label, strings.Join(edge.RequiredRoles, ",")))
		}
		if label == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, label, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
