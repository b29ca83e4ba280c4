package runtime

import (
	"fmt"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Messages for the definition-level rules.
const (
	MsgNoStartNode       = "SOP must have at least one Start node"
	MsgMultipleStartNode = "SOP should have only one Start node"
	MsgNoEndNode         = "SOP must have at least one End node"
)

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err returns a *domain.DefinitionError when the result is invalid, nil otherwise.
func (r ValidationResult) Err(definitionID string) error {
	if r.Valid {
		return nil
	}
	return &domain.DefinitionError{DefinitionID: definitionID, Problems: r.Errors}
}

// Validate checks the structural invariants of a Definition.
// Every rule runs and every problem is reported; nothing short-circuits.
// The check is advisory: it never blocks editing, callers use it to gate publishing.
func Validate(def *domain.Definition) ValidationResult {
	errs := []string{}
	if def == nil {
		def = &domain.Definition{}
	}

	starts := def.NodesOfKind(domain.NodeKindStart)
	ends := def.NodesOfKind(domain.NodeKindEnd)

	// 1. Entry point
	switch {
	case len(starts) == 0:
		errs = append(errs, MsgNoStartNode)
	case len(starts) > 1:
		errs = append(errs, MsgMultipleStartNode)
	}

	// 2. Sinks
	if len(ends) == 0 {
		errs = append(errs, MsgNoEndNode)
	}

	outgoing := make(map[string]int)
	incoming := make(map[string]int)
	for _, e := range def.Edges {
		outgoing[e.Source]++
		incoming[e.Target]++
	}

	// 3. Start nodes must lead somewhere
	for _, n := range starts {
		if outgoing[n.ID] == 0 {
			errs = append(errs, fmt.Sprintf("Start node %q has no outgoing actions", n.DisplayLabel()))
		}
	}

	// 4. End nodes must be reachable by some action
	for _, n := range ends {
		if incoming[n.ID] == 0 {
			errs = append(errs, fmt.Sprintf("End node %q has no incoming actions", n.DisplayLabel()))
		}
	}

	// 5. Everything else must be connected
	for _, n := range def.Nodes {
		if n.IsStart() || n.IsEnd() {
			continue
		}
		if incoming[n.ID] == 0 && outgoing[n.ID] == 0 {
			errs = append(errs, fmt.Sprintf("Status %q is not connected to anything", n.DisplayLabel()))
		}
	}

	// 6. Actions must reference statuses that exist
	known := make(map[string]bool, len(def.Nodes))
	for _, n := range def.Nodes {
		known[n.ID] = true
	}
	for _, e := range def.Edges {
		if !known[e.Source] {
			errs = append(errs, fmt.Sprintf("Action %q references unknown status %q", e.DisplayLabel(), e.Source))
		}
		if !known[e.Target] {
			errs = append(errs, fmt.Sprintf("Action %q references unknown status %q", e.DisplayLabel(), e.Target))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
