package protoschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrorKind classifies a validation problem.
type ErrorKind string

const (
	KindMissing      ErrorKind = "missing"
	KindTypeMismatch ErrorKind = "type_mismatch"
	KindInvalidValue ErrorKind = "invalid_value"
	KindUnknownField ErrorKind = "unknown_field"
)

// ValidationError is one problem found in a payload.
type ValidationError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"type"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateJSON decodes data and validates it against message.
func (s *Schema) ValidateJSON(data []byte, message string) []ValidationError {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return []ValidationError{{
			Field:   "root",
			Message: fmt.Sprintf("Invalid JSON: %v", err),
			Kind:    KindInvalidValue,
		}}
	}
	return s.Validate(payload, message)
}

// Validate checks a decoded JSON payload against message. Numbers may be
// float64, int, or json.Number. An empty result means the payload is valid.
// Unset fields are allowed except proto2 required fields.
func (s *Schema) Validate(payload any, message string) []ValidationError {
	msg, ok := s.Message(message)
	if !ok {
		return []ValidationError{{
			Field:   "root",
			Message: fmt.Sprintf("Could not find message definition for '%s'", message),
			Kind:    KindInvalidValue,
		}}
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return []ValidationError{{
			Field:   "root",
			Message: fmt.Sprintf("Expected object (message type), got %s", jsonType(payload)),
			Kind:    KindTypeMismatch,
		}}
	}
	return s.validateMessage(obj, msg)
}

func (s *Schema) validateMessage(obj map[string]any, msg *Message) []ValidationError {
	var errs []ValidationError
	known := make(map[string]bool, len(msg.Fields))

	for _, f := range msg.Fields {
		known[f.Name] = true
		value, present := obj[f.Name]
		if !present || value == nil {
			if f.Required {
				errs = append(errs, ValidationError{
					Field:   f.Name,
					Message: fmt.Sprintf("Required field '%s' is missing", f.Name),
					Kind:    KindMissing,
				})
			}
			continue
		}
		if e := s.validateField(value, f); e != nil {
			errs = append(errs, *e)
		}
	}

	var unknown []string
	for key := range obj {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, ValidationError{
			Field:   key,
			Message: fmt.Sprintf("Unknown field '%s'", key),
			Kind:    KindUnknownField,
		})
	}
	return errs
}

func (s *Schema) validateField(value any, f Field) *ValidationError {
	mismatch := func(field, msg string) *ValidationError {
		return &ValidationError{Field: field, Message: msg, Kind: KindTypeMismatch}
	}

	switch {
	case f.IsMap():
		entries, ok := value.(map[string]any)
		if !ok {
			return mismatch(f.Name, fmt.Sprintf("Field '%s' should be an object (map field)", f.Name))
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msg := s.checkValue(entries[k], f.Type, f.scope); msg != "" {
				return mismatch(fmt.Sprintf("%s[%s]", f.Name, k), msg)
			}
		}
		return nil

	case f.Repeated:
		items, ok := value.([]any)
		if !ok {
			return mismatch(f.Name, fmt.Sprintf("Field '%s' should be an array (repeated field)", f.Name))
		}
		for i, item := range items {
			if msg := s.checkValue(item, f.Type, f.scope); msg != "" {
				return mismatch(fmt.Sprintf("%s[%d]", f.Name, i), msg)
			}
		}
		return nil

	default:
		if msg := s.checkValue(value, f.Type, f.scope); msg != "" {
			return mismatch(f.Name, msg)
		}
		return nil
	}
}

// checkValue returns a description of why value does not fit typ, or "".
func (s *Schema) checkValue(value any, typ, scope string) string {
	switch strings.ToLower(typ) {
	case "string":
		if _, ok := value.(string); !ok {
			return "Expected string, got " + jsonType(value)
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return "Expected boolean, got " + jsonType(value)
		}
	case "double", "float":
		if !isNumber(value) {
			return "Expected number, got " + jsonType(value)
		}
	case "int32", "int64", "uint32", "uint64", "sint32", "sint64",
		"fixed32", "fixed64", "sfixed32", "sfixed64":
		if !isInteger(value) {
			return "Expected integer, got " + jsonType(value)
		}
	case "bytes":
		if _, ok := value.(string); !ok {
			return "Expected string (base64), got " + jsonType(value)
		}
	default:
		if msg, ok := lookup(s, s.messages, typ, scope); ok {
			obj, ok := value.(map[string]any)
			if !ok {
				return "Expected object (message type), got " + jsonType(value)
			}
			if nested := s.validateMessage(obj, msg); len(nested) > 0 {
				return "Invalid nested message: " + nested[0].Message
			}
			return ""
		}
		if enum, ok := lookup(s, s.enums, typ, scope); ok {
			return checkEnum(value, enum)
		}
		return fmt.Sprintf("Unknown type '%s'", typ)
	}
	return ""
}

func checkEnum(value any, enum *Enum) string {
	if name, ok := value.(string); ok {
		for _, v := range enum.Values {
			if v == name {
				return ""
			}
		}
		return fmt.Sprintf("Unknown value '%s' for enum %s", name, enum.Name)
	}
	if isInteger(value) {
		return ""
	}
	return "Expected enum name or number, got " + jsonType(value)
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, uint, uint64, uint32, json.Number:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int64, int32, uint, uint64, uint32:
		return true
	case float64:
		return !math.IsInf(n, 0) && n == math.Trunc(n)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case json.Number:
		if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return true
		}
		if _, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && f == math.Trunc(f)
	}
	return false
}

// jsonType names the JSON kind of v the way JavaScript's typeof would.
func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	case map[string]any, []any:
		return "object"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
