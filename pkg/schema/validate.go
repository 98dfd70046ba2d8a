package schema

// Schema is a map of field names to their expected types.
// Example: {"legalId": Digits(9), "categories": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Returns an error aggregating every validation failure found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error

	for fieldName, fieldType := range schema {
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
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

// ValidateValue checks one raw reply against a schema.
// Conversation replies arrive as a single value: a single-field schema
// binds the value to that field and returns the field name, so callers can
// key the callback payload by it. A multi-field schema requires the value
// to already be a map and delegates to Validate.
func ValidateValue(schema Schema, value any) (field string, err error) {
	if len(schema) == 1 {
		for name, typ := range schema {
			if verr := typ.Validate(value); verr != nil {
				return name, &AggregateError{Errors: []error{&ValidationError{
					Key:    name,
					Reason: verr.Error(),
					Value:  value,
				}}}
			}
			return name, nil
		}
	}

	if m, ok := value.(map[string]any); ok {
		return "", Validate(schema, m)
	}
	return "", &AggregateError{Errors: []error{&ValidationError{
		Reason: "expected structured value for multi-field schema",
		Value:  value,
	}}}
}
