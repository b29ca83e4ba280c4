package domain

// ObjectDiff represents the changes between two versions of a case.
// It is designed to be serialized to JSON for partial updates on the client.
type ObjectDiff struct {
	// ObjectID is always present to identify the target.
	ObjectID string `json:"object_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`

	IsComplete *bool `json:"is_complete,omitempty"`

	// PathAppended contains entries added to the path, oldest first.
	PathAppended []PathEntry `json:"path,omitempty"`

	// AuditAppended contains audit entries added since the old version.
	AuditAppended []AuditEntry `json:"audit,omitempty"`
}

// Diff calculates the difference between oldObj and newObj.
// If oldObj is nil, it returns a diff representing the entire newObj (initial load).
// It returns nil when nothing changed.
func Diff(oldObj, newObj *Object) *ObjectDiff {
	if newObj == nil {
		return nil
	}

	diff := &ObjectDiff{
		ObjectID: newObj.ID,
	}

	if oldObj == nil || oldObj.CurrentNodeID != newObj.CurrentNodeID {
		diff.CurrentNodeID = &newObj.CurrentNodeID
	}

	if oldObj == nil {
		if newObj.IsComplete {
			diff.IsComplete = &newObj.IsComplete
		}
	} else if oldObj.IsComplete != newObj.IsComplete {
		diff.IsComplete = &newObj.IsComplete
	}

	// Path and audit are append-only.
	oldPath, oldAudit := 0, 0
	if oldObj != nil {
		oldPath, oldAudit = len(oldObj.Path), len(oldObj.Audit)
	}
	if len(newObj.Path) > oldPath {
		diff.PathAppended = newObj.Path[oldPath:]
	}
	if len(newObj.Audit) > oldAudit {
		diff.AuditAppended = newObj.Audit[oldAudit:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ObjectDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.IsComplete == nil &&
		len(d.PathAppended) == 0 &&
		len(d.AuditAppended) == 0
}
