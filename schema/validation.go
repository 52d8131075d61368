package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
)

// ValidationError describes one argument that does not match its schema.
type ValidationError struct {
	Path    string // e.g. "chatId"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors collects every mismatch found in one document.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks raw JSON against the schema. It returns nil, a
// *ValidationError for undecodable input, or ValidationErrors.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}
	return s.ValidateValue(value)
}

// ValidateValue checks a decoded JSON value against the schema.
func (s *Schema) ValidateValue(value any) error {
	var errs ValidationErrors
	s.validate("", value, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) validate(path string, value any, errs *ValidationErrors) {
	// Presence of required fields is checked by the enclosing object.
	if value == nil {
		return
	}

	if len(s.AnyOf) > 0 {
		s.validateAnyOf(path, value, errs)
		return
	}

	switch s.Type {
	case typeObject:
		s.validateObject(path, value, errs)
	case typeArray:
		s.validateArray(path, value, errs)
	case typeString:
		s.validateString(path, value, errs)
	case typeInteger:
		s.validateInteger(path, value, errs)
	case typeNumber:
		s.validateNumber(path, value, errs)
	case typeBoolean:
		if _, ok := value.(bool); !ok {
			errs.add(path, "expected boolean, got %s", jsonType(value))
		}
	}
}

func (s *Schema) validateAnyOf(path string, value any, errs *ValidationErrors) {
	types := make([]string, 0, len(s.AnyOf))
	for _, alt := range s.AnyOf {
		var altErrs ValidationErrors
		alt.validate(path, value, &altErrs)
		if len(altErrs) == 0 {
			return
		}
		types = append(types, alt.Type)
	}
	errs.add(path, "expected %s, got %s", strings.Join(types, " or "), jsonType(value))
}

func (s *Schema) validateObject(path string, value any, errs *ValidationErrors) {
	obj, ok := value.(map[string]any)
	if !ok {
		errs.add(path, "expected object, got %s", jsonType(value))
		return
	}

	for _, name := range s.Required {
		if v, exists := obj[name]; !exists || v == nil {
			errs.add(joinPath(path, name), "required field is missing")
		}
	}

	for name, prop := range s.Properties {
		if v, exists := obj[name]; exists {
			prop.validate(joinPath(path, name), v, errs)
		}
	}
}

func (s *Schema) validateArray(path string, value any, errs *ValidationErrors) {
	items, ok := value.([]any)
	if !ok {
		errs.add(path, "expected array, got %s", jsonType(value))
		return
	}
	if s.Items == nil {
		return
	}
	for i, item := range items {
		s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, errs)
	}
}

func (s *Schema) validateString(path string, value any, errs *ValidationErrors) {
	str, ok := value.(string)
	if !ok {
		errs.add(path, "expected string, got %s", jsonType(value))
		return
	}
	if len(s.Enum) == 0 {
		return
	}
	for _, e := range s.Enum {
		if e == str {
			return
		}
	}
	errs.add(path, "value must be one of: %v", s.Enum)
}

func (s *Schema) validateInteger(path string, value any, errs *ValidationErrors) {
	num, ok := value.(float64)
	if !ok {
		errs.add(path, "expected integer, got %s", jsonType(value))
		return
	}
	if num != math.Trunc(num) {
		errs.add(path, "expected integer, got decimal number")
		return
	}
	s.validateBounds(path, num, errs)
}

func (s *Schema) validateNumber(path string, value any, errs *ValidationErrors) {
	num, ok := value.(float64)
	if !ok {
		errs.add(path, "expected number, got %s", jsonType(value))
		return
	}
	s.validateBounds(path, num, errs)
}

func (s *Schema) validateBounds(path string, num float64, errs *ValidationErrors) {
	if s.Minimum != nil && num < *s.Minimum {
		errs.add(path, "value %v is less than minimum %v", num, *s.Minimum)
	}
	if s.Maximum != nil && num > *s.Maximum {
		errs.add(path, "value %v is greater than maximum %v", num, *s.Maximum)
	}
}

func (e *ValidationErrors) add(path, format string, args ...any) {
	*e = append(*e, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// jsonType names the JSON type of a value produced by encoding/json.
func jsonType(v any) string {
	switch v.(type) {
	case map[string]any:
		return typeObject
	case []any:
		return typeArray
	case string:
		return typeString
	case float64:
		return typeNumber
	case bool:
		return typeBoolean
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
