package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Type defines the contract for field validation.
// Implementations decide how raw values are checked and, where useful,
// normalized before a callback ever sees them.
type Type interface {
	// Name returns the human-readable name of the type (e.g. "string",
	// "digits(9)").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates non-empty string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("expected non-empty string")
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON unmarshaling yields float64; accept whole numbers.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	case string:
		if _, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return nil
		}
		return fmt.Errorf("expected int, got non-numeric string")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
	minLen   int
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	if rv.Len() < t.minLen {
		return fmt.Errorf("expected at least %d elements, got %d", t.minLen, rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// PatternType validates strings against a regular expression.
type PatternType struct {
	name string
	re   *regexp.Regexp
	hint string
}

func (t *PatternType) Name() string { return t.name }

func (t *PatternType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !t.re.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%s", t.hint)
	}
	return nil
}

// RangeType validates that a numeric value falls inside [min, max].
type RangeType struct {
	min, max float64
}

func (t *RangeType) Name() string {
	return fmt.Sprintf("range(%g..%g)", t.min, t.max)
}

func (t *RangeType) Validate(value any) error {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		f = parsed
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if f < t.min || f > t.max {
		return fmt.Errorf("expected value between %g and %g, got %g", t.min, t.max, f)
	}
	return nil
}

// EnumType validates that a string is one of a closed set of values.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string {
	return fmt.Sprintf("enum(%s)", strings.Join(t.values, "|"))
}

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	clean := strings.TrimSpace(s)
	for _, v := range t.values {
		if strings.EqualFold(clean, v) {
			return nil
		}
	}
	return fmt.Errorf("expected one of [%s], got %q", strings.Join(t.values, ", "), s)
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

// String creates a non-empty string validator.
func String() Type { return &StringType{} }

// Int creates an integer validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// NonEmptySlice creates a slice validator requiring at least one element.
func NonEmptySlice(elemType Type) Type {
	return &SliceType{elemType: elemType, minLen: 1}
}

// Pattern creates a validator matching a regular expression. The hint is
// the failure reason shown to the user.
func Pattern(name, expr, hint string) Type {
	return &PatternType{name: name, re: regexp.MustCompile(expr), hint: hint}
}

// Digits creates a validator for a string of exactly n digits
// (e.g. a 9-digit legal ID).
func Digits(n int) Type {
	return &PatternType{
		name: fmt.Sprintf("digits(%d)", n),
		re:   regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, n)),
		hint: fmt.Sprintf("expected exactly %d digits", n),
	}
}

// Phone creates a validator for international phone numbers in E.164-ish
// form, with or without a leading plus.
func Phone() Type {
	return &PatternType{
		name: "phone",
		re:   regexp.MustCompile(`^\+?\d{9,15}$`),
		hint: "expected a phone number (9-15 digits, optional leading +)",
	}
}

// HourRange creates a validator for an hour of day (0-23).
func HourRange() Type {
	return &RangeType{min: 0, max: 23}
}

// Range creates a numeric validator bounded by [min, max].
func Range(min, max float64) Type {
	return &RangeType{min: min, max: max}
}

// Enum creates a validator for a closed set of case-insensitive values.
func Enum(values ...string) Type {
	return &EnumType{values: values}
}

// Custom creates a validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "string", "int", "bool", "phone", "hour", slices like
// "[string]", and parameterized forms "digits(9)" and "enum(a|b|c)".
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	if strings.HasPrefix(typeStr, "digits(") && strings.HasSuffix(typeStr, ")") {
		n, err := strconv.Atoi(typeStr[len("digits(") : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid digits type %q", typeStr)
		}
		return Digits(n), nil
	}

	if strings.HasPrefix(typeStr, "enum(") && strings.HasSuffix(typeStr, ")") {
		values := strings.Split(typeStr[len("enum("):len(typeStr)-1], "|")
		if len(values) == 0 {
			return nil, fmt.Errorf("invalid enum type %q", typeStr)
		}
		return Enum(values...), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	case "phone":
		return Phone(), nil
	case "hour":
		return HourRange(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"legalId": "digits(9)", "categories": "[string]"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
