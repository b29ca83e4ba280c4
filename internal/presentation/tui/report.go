package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/muesli/termenv"
)

// CaseReport renders a markdown summary of a case: where it is, how far it has
// come, what it can do next and what happened so far.
func CaseReport(def *domain.Definition, obj *domain.Object, role string) string {
	var sb strings.Builder

	title := obj.Name
	if title == "" {
		title = obj.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "- **Case:** `%s`\n", obj.ID)
	fmt.Fprintf(&sb, "- **SOP:** %s\n", definitionTitle(def))
	fmt.Fprintf(&sb, "- **Status:** %s\n", nodeLabel(def, obj.CurrentNodeID))

	p := runtime.EstimateProgress(def, obj)
	progress := fmt.Sprintf("%d%% (%d/%d)", p.Percentage, p.Steps, p.Total)
	if !p.EndReachable {
		progress += " (no end reachable, estimate)"
	}
	if obj.IsComplete {
		progress = "complete"
	}
	fmt.Fprintf(&sb, "- **Progress:** %s\n\n", progress)

	if actions := runtime.AvailableActions(def, obj, role); len(actions) > 0 {
		sb.WriteString("## Available actions\n\n")
		for _, e := range actions {
			fmt.Fprintf(&sb, "- `%s` **%s** → %s%s\n", e.ID, e.DisplayLabel(), nodeLabel(def, e.Target), requirements(e))
		}
		sb.WriteString("\n")
	}

	if len(obj.Audit) > 0 {
		sb.WriteString("## History\n\n")
		sb.WriteString("| When | Action | From | To | Actor | Notifications |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, a := range obj.Audit {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %d |\n",
				a.Timestamp.UTC().Format(time.DateTime), a.Action, a.FromStatusLabel, a.ToStatusLabel, orDash(a.Actor), len(a.Notifications))
		}
		sb.WriteString("\n")

		last := obj.Audit[len(obj.Audit)-1]
		if len(last.Notifications) > 0 {
			sb.WriteString("## Last notifications\n\n")
			for _, line := range NotificationLines(obj.Name, last) {
				fmt.Fprintf(&sb, "- %s\n", line)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// NotificationLines renders the notifications recorded on an audit entry,
// one formatted preview per channel.
func NotificationLines(objectName string, entry domain.AuditEntry) []string {
	vars := map[string]string{
		notify.VarObjectName: objectName,
		notify.VarFromStatus: entry.FromStatusLabel,
		notify.VarToStatus:   entry.ToStatusLabel,
		notify.VarAction:     entry.Action,
		notify.VarActor:      entry.Actor,
		notify.VarTimestamp:  entry.Timestamp.UTC().Format(time.RFC3339),
	}
	var lines []string
	for _, evt := range entry.Notifications {
		for _, pv := range notify.PreviewEvent(evt, vars) {
			lines = append(lines, pv.Formatted)
		}
	}
	return lines
}

// StatusLine returns a one-line coloured summary of a case for listings.
func StatusLine(def *domain.Definition, obj *domain.Object) string {
	p := termenv.ColorProfile()
	status := nodeLabel(def, obj.CurrentNodeID)
	color := "#60a5fa"
	if obj.IsComplete {
		color = "#34d399"
	}
	pct := runtime.EstimateProgress(def, obj).Percentage
	name := termenv.String(obj.Name).Bold()
	return fmt.Sprintf("%s  %s  %s  %3d%%", obj.ID, name, termenv.String(status).Foreground(p.Color(color)), pct)
}

func requirements(e domain.Edge) string {
	var parts []string
	if len(e.RequiredRoles) > 0 {
		parts = append(parts, "roles: "+strings.Join(e.RequiredRoles, ", "))
	}
	if len(e.RequiredFields) > 0 {
		names := make([]string, len(e.RequiredFields))
		for i, f := range e.RequiredFields {
			names[i] = f.Name
		}
		sort.Strings(names)
		parts = append(parts, "fields: "+strings.Join(names, ", "))
	}
	if len(e.RequiredDocuments) > 0 {
		names := make([]string, len(e.RequiredDocuments))
		for i, d := range e.RequiredDocuments {
			names[i] = d.Name
		}
		parts = append(parts, "documents: "+strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

func definitionTitle(def *domain.Definition) string {
	if def.Name != "" {
		return def.Name
	}
	return def.ID
}

func nodeLabel(def *domain.Definition, id string) string {
	if n, ok := def.NodeByID(id); ok {
		return n.DisplayLabel()
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
