package protoschema

import "strings"

// maxSampleDepth stops recursive messages from expanding forever.
const maxSampleDepth = 8

// fallbackSample is returned for messages the schema does not define.
func fallbackSample() map[string]any {
	return map[string]any{"sample_field": "sample_value"}
}

// Sample builds a request body for message with a placeholder value in
// every field: "sample" for strings, false for bools, 1 for numbers,
// base64 "sample" for bytes, the first value for enums, and nested samples
// for message fields. Repeated fields hold one element; maps hold one entry.
func (s *Schema) Sample(message string) map[string]any {
	msg, ok := s.Message(message)
	if !ok {
		return fallbackSample()
	}
	return s.sampleMessage(msg, 0)
}

func (s *Schema) sampleMessage(msg *Message, depth int) map[string]any {
	out := make(map[string]any, len(msg.Fields))
	seenOneof := make(map[string]bool)

	for _, f := range msg.Fields {
		// Only the first member of a oneof can be set.
		if f.Oneof != "" {
			if seenOneof[f.Oneof] {
				continue
			}
			seenOneof[f.Oneof] = true
		}

		v, ok := s.sampleValue(f.Type, f.scope, depth)
		if !ok {
			continue
		}
		switch {
		case f.IsMap():
			out[f.Name] = map[string]any{sampleKey(f.KeyType): v}
		case f.Repeated:
			out[f.Name] = []any{v}
		default:
			out[f.Name] = v
		}
	}
	return out
}

func (s *Schema) sampleValue(typ, scope string, depth int) (any, bool) {
	switch strings.ToLower(typ) {
	case "string":
		return "sample", true
	case "bool":
		return false, true
	case "double", "float":
		return 1.0, true
	case "int32", "int64", "uint32", "uint64", "sint32", "sint64",
		"fixed32", "fixed64", "sfixed32", "sfixed64":
		return 1, true
	case "bytes":
		return "c2FtcGxl", true
	}

	if msg, ok := lookup(s, s.messages, typ, scope); ok {
		if depth >= maxSampleDepth {
			return nil, false
		}
		return s.sampleMessage(msg, depth+1), true
	}
	if enum, ok := lookup(s, s.enums, typ, scope); ok && len(enum.Values) > 0 {
		return enum.Values[0], true
	}
	return "sample", true
}

func sampleKey(keyType string) string {
	if keyType == "string" {
		return "sample"
	}
	if keyType == "bool" {
		return "true"
	}
	return "1"
}
