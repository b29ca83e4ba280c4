package schema

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "text", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// TextType validates free-text values.
type TextType struct {
	name string
}

func (t *TextType) Name() string { return t.name }

func (t *TextType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected text, got %T", value)
	}
	return nil
}

// NumberType validates numeric values. Form inputs arrive as strings, so
// numeric strings are accepted too.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// dateLayouts are tried in order when a date arrives as a string.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// DateType validates calendar dates.
type DateType struct{}

func (t *DateType) Name() string { return "date" }

func (t *DateType) Validate(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return nil
			}
		}
		return fmt.Errorf("expected date (YYYY-MM-DD or RFC3339), got %q", v)
	default:
		return fmt.Errorf("expected date, got %T", value)
	}
}

// BooleanType validates yes/no values.
type BooleanType struct{}

func (t *BooleanType) Name() string { return "boolean" }

func (t *BooleanType) Validate(value any) error {
	switch v := value.(type) {
	case bool:
		return nil
	case string:
		if _, err := strconv.ParseBool(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("expected boolean, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected boolean, got %T", value)
	}
}

// EmailType validates a single e-mail address.
type EmailType struct{}

func (t *EmailType) Name() string { return "email" }

func (t *EmailType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected email, got %T", value)
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("expected email, got %q", s)
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// Text creates a free-text type validator.
func Text() Type { return &TextType{name: "text"} }

// Number creates a numeric type validator.
func Number() Type { return &NumberType{} }

// Date creates a date type validator.
func Date() Type { return &DateType{} }

// Boolean creates a boolean type validator.
func Boolean() Type { return &BooleanType{} }

// Email creates an e-mail address validator.
func Email() Type { return &EmailType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a field type name to a Type.
// Supports: "text", "textarea", "select", "number", "date", "boolean", "email".
func ParseType(typeStr string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(typeStr)) {
	case "text", "string":
		return Text(), nil
	case "textarea":
		return &TextType{name: "textarea"}, nil
	case "select":
		return &TextType{name: "select"}, nil
	case "number":
		return Number(), nil
	case "date":
		return Date(), nil
	case "boolean", "bool", "checkbox":
		return Boolean(), nil
	case "email":
		return Email(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Fields with an unsupported type are skipped and reported in the second result,
// so callers can decide whether unknown types are fatal.
// Example: {"Amount": "number", "Due": "date"}
func ParseTypeMap(typeMap map[string]string) (Schema, []string) {
	result := make(Schema)
	var unknown []string
	for key, typeStr := range typeMap {
		if typeStr == "" {
			continue
		}
		t, err := ParseType(typeStr)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		result[key] = t
	}
	return result, unknown
}
