package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses a YAML or JSON document into a Definition.
//
// Unknown keys are rejected so a misspelt notification event or property
// surfaces as an error instead of being silently dropped. fallbackID is used
// when the document carries no id of its own.
func Decode(data []byte, fallbackID string) (*domain.Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("definition is empty")
	}

	var def domain.Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}

	if def.ID == "" {
		def.ID = fallbackID
	}
	if err := Check(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Check validates struct-level constraints (required ids, known kinds,
// channels and recipients, unique ids). Graph rules live in the runtime.
func Check(def *domain.Definition) error {
	err := validate.Struct(def)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid definition: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid definition %q: %s", def.ID, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Definition.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "unique":
		return fmt.Sprintf("%s contains duplicate %s values", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %q", field, fe.Tag())
}
