package protoschema

import (
	"strings"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

// Schema is the parsed content of one proto file.
type Schema struct {
	Syntax   string     `json:"syntax,omitempty"`
	Package  string     `json:"package,omitempty"`
	Services []Service  `json:"services"`
	Messages []*Message `json:"messages"`
	Enums    []*Enum    `json:"enums,omitempty"`

	messages map[string]*Message // by full name
	enums    map[string]*Enum    // by full name
}

// Service is a service definition. Name is qualified with the package.
type Service struct {
	Name    string   `json:"name"`
	Methods []Method `json:"methods"`
}

// Method is one rpc of a service.
type Method struct {
	Name   string          `json:"name"`
	Type   grpcurl.RPCType `json:"type"`
	Input  string          `json:"input_type"`
	Output string          `json:"output_type"`
}

// Path returns the method path accepted by grpcurl, "pkg.Service/Method".
func (m Method) Path(service string) string {
	return service + "/" + m.Name
}

// Message is a message definition, including nested ones.
type Message struct {
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	Fields   []Field `json:"fields"`
}

// Field is one field of a message.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Number   int    `json:"number"`
	Repeated bool   `json:"repeated,omitempty"`
	Required bool   `json:"required,omitempty"`
	Oneof    string `json:"oneof,omitempty"`

	// KeyType is set for map fields; Type then holds the value type.
	KeyType string `json:"key_type,omitempty"`

	// scope is the full name of the enclosing message, for type lookup.
	scope string
}

// IsMap reports whether the field is a map.
func (f Field) IsMap() bool {
	return f.KeyType != ""
}

// Enum is an enum definition.
type Enum struct {
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Values   []string `json:"values"`
}

// Message finds a message by simple, relative, or fully qualified name.
func (s *Schema) Message(name string) (*Message, bool) {
	return lookup(s, s.messages, name, "")
}

// Enum finds an enum by simple, relative, or fully qualified name.
func (s *Schema) Enum(name string) (*Enum, bool) {
	return lookup(s, s.enums, name, "")
}

// Service finds a service by name, with or without the package prefix.
func (s *Schema) Service(name string) (*Service, bool) {
	name = strings.TrimPrefix(name, ".")
	for i := range s.Services {
		svc := &s.Services[i]
		if svc.Name == name || s.qualify(name) == svc.Name {
			return svc, true
		}
	}
	return nil, false
}

// Method finds a method by "Service/Method", "pkg.Service/Method", or
// "pkg.Service.Method".
func (s *Schema) Method(path string) (*Service, *Method, bool) {
	path = strings.TrimPrefix(path, "/")
	svcName, methodName, ok := strings.Cut(path, "/")
	if !ok {
		idx := strings.LastIndex(path, ".")
		if idx < 0 {
			return nil, nil, false
		}
		svcName, methodName = path[:idx], path[idx+1:]
	}

	svc, ok := s.Service(svcName)
	if !ok {
		return nil, nil, false
	}
	for i := range svc.Methods {
		if svc.Methods[i].Name == methodName {
			return svc, &svc.Methods[i], true
		}
	}
	return nil, nil, false
}

func (s *Schema) qualify(name string) string {
	if s.Package == "" {
		return name
	}
	return s.Package + "." + name
}

// lookup resolves a type reference the way protoc does: fully qualified
// names first, then outward from scope, then the package. As a last resort
// a unique simple-name match is accepted so fragments still resolve.
func lookup[T any](s *Schema, table map[string]T, name, scope string) (T, bool) {
	var zero T
	if name == "" {
		return zero, false
	}
	if strings.HasPrefix(name, ".") {
		v, ok := table[name[1:]]
		return v, ok
	}

	for sc := scope; sc != ""; {
		if v, ok := table[sc+"."+name]; ok {
			return v, true
		}
		idx := strings.LastIndex(sc, ".")
		if idx < 0 {
			break
		}
		sc = sc[:idx]
	}
	if v, ok := table[s.qualify(name)]; ok {
		return v, true
	}
	if v, ok := table[name]; ok {
		return v, true
	}

	simple := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		simple = name[idx+1:]
	}
	var found T
	matches := 0
	for full, v := range table {
		if full == simple || strings.HasSuffix(full, "."+simple) {
			found = v
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return zero, false
}
