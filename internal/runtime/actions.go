package runtime

import "github.com/aretw0/sopflow/pkg/domain"

// AvailableActions lists the edges leaving the object's current node.
// When role is non-empty, edges whose requiredRoles exclude it are dropped.
func AvailableActions(def *domain.Definition, obj *domain.Object, role string) []domain.Edge {
	if def == nil || obj == nil || obj.IsComplete {
		return nil
	}
	var out []domain.Edge
	for _, e := range def.Outgoing(obj.CurrentNodeID) {
		if role != "" && !e.AllowsRole(role) {
			continue
		}
		out = append(out, e)
	}
	return out
}
