package runtime

import (
	"fmt"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/schema"
)

// CheckCatalog reports roles, document types and field types used by the
// definition that the catalog does not list. The warnings are advisory and
// are kept apart from Validate's structural rules.
func CheckCatalog(def *domain.Definition, catalog domain.Catalog) []string {
	if def == nil {
		return nil
	}
	var warnings []string
	for _, e := range def.Edges {
		for _, role := range e.RequiredRoles {
			if !catalog.HasRole(role) {
				warnings = append(warnings, fmt.Sprintf("Action %q requires unknown role %q", e.DisplayLabel(), role))
			}
		}
		for _, f := range e.RequiredFields {
			if f.Type == "" {
				continue
			}
			if !catalog.HasFieldType(f.Type) {
				warnings = append(warnings, fmt.Sprintf("Action %q field %q uses unknown type %q", e.DisplayLabel(), f.Name, f.Type))
				continue
			}
			if _, err := schema.ParseType(f.Type); err != nil {
				warnings = append(warnings, fmt.Sprintf("Action %q field %q: %v", e.DisplayLabel(), f.Name, err))
			}
		}
		for _, d := range e.RequiredDocuments {
			if d.Type != "" && !catalog.HasDocumentType(d.Type) {
				warnings = append(warnings, fmt.Sprintf("Action %q document %q uses unknown type %q", e.DisplayLabel(), d.Name, d.Type))
			}
		}
	}
	return warnings
}

// CheckCatalog runs the package-level check with the engine's catalog.
func (e *Engine) CheckCatalog(def *domain.Definition) []string {
	return CheckCatalog(def, e.catalog)
}
