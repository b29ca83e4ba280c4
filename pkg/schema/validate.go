package schema

import (
	"errors"
	"sort"
)

// Schema is a map of field names to their expected types.
// Example: {"Amount": Number(), "Due": Date()}
type Schema map[string]Type

// Validate checks data against every field of the schema. Absent fields are
// reported as "required"; all failures are returned together.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for _, fieldName := range sortedKeys(schema) {
		if _, ok := data[fieldName]; !ok {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
		}
	}
	if err := ValidatePresent(schema, data); err != nil {
		var agg *AggregateError
		if errors.As(err, &agg) {
			errs = append(errs, agg.Errors...)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidatePresent validates only the schema fields that appear in data.
// Presence is checked elsewhere; this only reports values of the wrong shape.
func ValidatePresent(schema Schema, data map[string]any) error {
	var errs []error

	for _, fieldName := range sortedKeys(schema) {
		value, exists := data[fieldName]
		if !exists {
			continue
		}
		if err := schema[fieldName].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// sortedKeys keeps error ordering stable across runs.
func sortedKeys(s Schema) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
