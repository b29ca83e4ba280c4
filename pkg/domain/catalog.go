package domain

// Catalog holds the enumerations an administrator configures for a tenant:
// role names, document types and field types. The runtime treats them as
// advisory; they are used for warnings and opt-in type checking.
type Catalog struct {
	Roles         []string `json:"roles,omitempty" yaml:"roles,omitempty" mapstructure:"roles"`
	DocumentTypes []string `json:"documentTypes,omitempty" yaml:"documentTypes,omitempty" mapstructure:"documentTypes"`
	FieldTypes    []string `json:"fieldTypes,omitempty" yaml:"fieldTypes,omitempty" mapstructure:"fieldTypes"`
}

// HasRole reports whether role is listed. An empty list accepts everything.
func (c Catalog) HasRole(role string) bool {
	return contains(c.Roles, role)
}

// HasDocumentType reports whether t is listed. An empty list accepts everything.
func (c Catalog) HasDocumentType(t string) bool {
	return contains(c.DocumentTypes, t)
}

// HasFieldType reports whether t is listed. An empty list accepts everything.
func (c Catalog) HasFieldType(t string) bool {
	return contains(c.FieldTypes, t)
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
