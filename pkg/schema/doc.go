// Package schema provides a small type system for the values collected when an
// action is taken on a case.
//
// It knows the field types an SOP administrator can pick (text, textarea, select,
// number, date, boolean, email). Schemas map field names to types, enabling
// runtime validation of submitted field values.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "Amount": schema.Number(),
//	    "Due":    schema.Date(),
//	}
//
//	values := map[string]any{
//	    "Amount": "120.50",
//	    "Due":    "2026-03-01",
//	}
//
//	if err := schema.Validate(s, values); err != nil {
//	    // Handle validation errors
//	}
//
// Schemas can be parsed from the field declarations of an action:
//
//	s, unknown := schema.ParseTypeMap(map[string]string{"Amount": "number"})
//
// Custom validators can be registered for tenant-specific types:
//
//	iban := schema.Custom("iban", func(v any) error { ... })
package schema
