package domain

// FieldRequirement is a value the actor must supply when taking an action.
type FieldRequirement struct {
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

// DocumentRequirement is a document the actor must attach when taking an action.
type DocumentRequirement struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Edge represents an action moving a case from Source to Target.
type Edge struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Source      string `json:"source" yaml:"source" mapstructure:"source" validate:"required"`
	Target      string `json:"target" yaml:"target" mapstructure:"target" validate:"required"`
	Label       string `json:"label" yaml:"label" mapstructure:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// RequiredRoles restricts who may take the action. Empty means unrestricted.
	RequiredRoles     []string              `json:"requiredRoles,omitempty" yaml:"requiredRoles,omitempty" mapstructure:"requiredRoles"`
	RequiredFields    []FieldRequirement    `json:"requiredFields,omitempty" yaml:"requiredFields,omitempty" mapstructure:"requiredFields" validate:"dive"`
	RequiredDocuments []DocumentRequirement `json:"requiredDocuments,omitempty" yaml:"requiredDocuments,omitempty" mapstructure:"requiredDocuments" validate:"dive"`

	Notifications EdgeNotifications `json:"notifications,omitempty" yaml:"notifications,omitempty" mapstructure:"notifications"`
}

// DisplayLabel falls back to the ID when the label is blank.
func (e Edge) DisplayLabel() string {
	if e.Label == "" {
		return e.ID
	}
	return e.Label
}

// AllowsRole reports whether role may take the action.
func (e Edge) AllowsRole(role string) bool {
	if len(e.RequiredRoles) == 0 {
		return true
	}
	for _, r := range e.RequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}
