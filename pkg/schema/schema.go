package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FieldType enumerates the value types a field may carry.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
)

// Field declares a named, typed field with optional value constraints.
type Field struct {
	Name     string
	Type     FieldType
	NonEmpty bool     // strings only
	Min      *float64 // numbers only
	Max      *float64 // numbers only
	Enum     []string // strings only
}

// Schema is an ordered set of field declarations. A record satisfies the
// schema when every declared field is present, well typed, and within its
// constraints, and the record carries no undeclared fields.
type Schema struct {
	Name   string
	Fields []Field
}

// New creates a schema from field declarations.
func New(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// String declares a string field.
func String(name string) Field {
	return Field{Name: name, Type: TypeString}
}

// NonEmptyString declares a string field that must not be blank.
func NonEmptyString(name string) Field {
	return Field{Name: name, Type: TypeString, NonEmpty: true}
}

// Number declares a real-valued field constrained to [min, max].
func Number(name string, min, max float64) Field {
	return Field{Name: name, Type: TypeNumber, Min: &min, Max: &max}
}

// IntAtLeast declares an integer field with a lower bound.
func IntAtLeast(name string, min float64) Field {
	return Field{Name: name, Type: TypeInt, Min: &min}
}

// Enum declares a string field restricted to the given values.
func Enum(name string, values ...string) Field {
	return Field{Name: name, Type: TypeString, Enum: values}
}

// Bool declares a boolean field.
func Bool(name string) Field {
	return Field{Name: name, Type: TypeBool}
}

// FieldNames returns the declared field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks a record against the schema. It returns a *Violation
// describing the first offending field; it never coerces or drops values.
func (s *Schema) Validate(record map[string]any) error {
	for _, field := range s.Fields {
		value, ok := record[field.Name]
		if !ok {
			return s.violation(field.Name, "required field missing", nil)
		}
		if err := s.checkField(field, value); err != nil {
			return err
		}
	}

	for name := range record {
		if !s.declared(name) {
			return s.violation(name, "field not declared in schema", record[name])
		}
	}

	return nil
}

func (s *Schema) checkField(field Field, value any) error {
	switch field.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return s.violation(field.Name, "string value required", value)
		}
		if field.NonEmpty && strings.TrimSpace(str) == "" {
			return s.violation(field.Name, "non-empty string required", value)
		}
		if len(field.Enum) > 0 && !contains(field.Enum, str) {
			return s.violation(field.Name, fmt.Sprintf("value must be one of [%s]", strings.Join(field.Enum, ", ")), value)
		}
	case TypeNumber:
		num, ok := asNumber(value)
		if !ok {
			return s.violation(field.Name, "numeric value required", value)
		}
		if err := s.checkRange(field, num, value); err != nil {
			return err
		}
	case TypeInt:
		num, ok := asNumber(value)
		if !ok || num != math.Trunc(num) {
			return s.violation(field.Name, "integer value required", value)
		}
		if err := s.checkRange(field, num, value); err != nil {
			return err
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return s.violation(field.Name, "boolean value required", value)
		}
	default:
		return s.violation(field.Name, fmt.Sprintf("unknown field type %q", field.Type), value)
	}
	return nil
}

func (s *Schema) checkRange(field Field, num float64, value any) error {
	if field.Min != nil && num < *field.Min {
		return s.violation(field.Name, fmt.Sprintf("value below minimum %v", *field.Min), value)
	}
	if field.Max != nil && num > *field.Max {
		return s.violation(field.Name, fmt.Sprintf("value above maximum %v", *field.Max), value)
	}
	return nil
}

func (s *Schema) declared(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (s *Schema) violation(field, constraint string, value any) *Violation {
	return &Violation{Schema: s.Name, Field: field, Constraint: constraint, Value: value}
}

// Violation reports a record that failed schema validation, identifying the
// offending field and the constraint it broke.
type Violation struct {
	Schema     string
	Field      string
	Constraint string
	Value      any
}

func (v *Violation) Error() string {
	if v.Value == nil {
		return fmt.Sprintf("schema %s: field %s: %s", v.Schema, v.Field, v.Constraint)
	}
	return fmt.Sprintf("schema %s: field %s: %s (got %v)", v.Schema, v.Field, v.Constraint, v.Value)
}

// Encode converts a struct with json tags into a field record.
func Encode(in any) (map[string]any, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Decode populates a struct with json tags from a field record.
func Decode(record map[string]any, out any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
