// Package schema provides type-safe validation for conversation replies
// and extracted values.
//
// It defines a small type system with built-in types (string, int, bool),
// format constraints (digits, phone, hour ranges, enums, patterns), slices,
// and custom validators. Schemas map field names to types, enabling runtime
// validation of both single free-text replies and structured extraction
// results.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "legalId":    schema.Digits(9),
//	    "categories": schema.NonEmptySlice(schema.String()),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    // err enumerates every field that failed and why
//	}
//
// Schemas can also be parsed from type strings, which is how YAML-defined
// flows declare them:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "legalId": "digits(9)",
//	    "hour":    "hour",
//	})
//
// Validation is pure and synchronous; it performs no I/O.
package schema
