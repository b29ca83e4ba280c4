package domain

import (
	"time"
)

// PathEntry records one visited status. EdgeID is empty for the entry at creation.
type PathEntry struct {
	NodeID    string    `json:"nodeId"`
	EdgeID    string    `json:"edgeId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Object is a case instance traversing a Definition.
// Values returned by the runtime are never mutated afterwards; a transition
// produces a new Object.
type Object struct {
	ID            string       `json:"id"`
	DefinitionID  string       `json:"definitionId"`
	Name          string       `json:"name"`
	Color         string       `json:"color,omitempty"`
	CurrentNodeID string       `json:"currentNodeId"`
	Path          []PathEntry  `json:"path"`
	Audit         []AuditEntry `json:"audit"`
	IsComplete    bool         `json:"isComplete"`
	CreatedAt     time.Time    `json:"createdAt"`

	// Sealed holds an encrypted copy of the object when a storage layer
	// encrypts at rest. It is empty on objects handed to the runtime.
	Sealed string `json:"sealed,omitempty"`
}

// Steps is the number of transitions taken so far.
func (o *Object) Steps() int {
	if len(o.Path) == 0 {
		return 0
	}
	return len(o.Path) - 1
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	next := *o
	next.Path = append([]PathEntry(nil), o.Path...)
	next.Audit = make([]AuditEntry, len(o.Audit))
	for i, entry := range o.Audit {
		next.Audit[i] = entry.Clone()
	}
	return &next
}

// AuditEntry is the immutable record of one executed transition.
type AuditEntry struct {
	ID                string              `json:"id"`
	Timestamp         time.Time           `json:"timestamp"`
	ObjectID          string              `json:"objectId"`
	ObjectName        string              `json:"objectName"`
	FromNodeID        string              `json:"fromNodeId"`
	FromStatusLabel   string              `json:"fromStatusLabel"`
	Action            string              `json:"action"`
	ToNodeID          string              `json:"toNodeId"`
	ToStatusLabel     string              `json:"toStatusLabel"`
	FieldValues       map[string]any      `json:"fieldValues,omitempty"`
	Actor             string              `json:"actor"`
	Role              string              `json:"role,omitempty"`
	DocumentsAttached []string            `json:"documentsAttached,omitempty"`
	Notifications     []NotificationEvent `json:"notifications,omitempty"`
}

// Clone returns a deep copy of the entry.
func (a AuditEntry) Clone() AuditEntry {
	next := a
	if a.FieldValues != nil {
		next.FieldValues = make(map[string]any, len(a.FieldValues))
		for k, v := range a.FieldValues {
			next.FieldValues[k] = v
		}
	}
	next.DocumentsAttached = append([]string(nil), a.DocumentsAttached...)
	if a.Notifications != nil {
		next.Notifications = make([]NotificationEvent, len(a.Notifications))
		for i, n := range a.Notifications {
			cp := n
			cp.Channels = append([]Channel(nil), n.Channels...)
			if n.Context != nil {
				cp.Context = make(map[string]string, len(n.Context))
				for k, v := range n.Context {
					cp.Context[k] = v
				}
			}
			next.Notifications[i] = cp
		}
	}
	return next
}
