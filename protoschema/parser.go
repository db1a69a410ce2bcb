package protoschema

import (
	"strings"

	"github.com/bufbuild/protocompile/ast"
	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

// sourceName labels positions in parse errors.
const sourceName = "input.proto"

// Parse reads proto source text. Only the syntax tree is built: imports are
// never resolved, so fragments and files with missing dependencies parse as
// long as they are syntactically valid. Declarations that do not affect
// services, messages, or enums are skipped.
func Parse(content string) (*Schema, error) {
	file, err := parser.Parse(sourceName, strings.NewReader(content), reporter.NewHandler(nil))
	if err != nil {
		return nil, err
	}
	return fromAST(file), nil
}

type builder struct {
	schema *Schema
}

func fromAST(file *ast.FileNode) *Schema {
	b := &builder{schema: &Schema{
		messages: make(map[string]*Message),
		enums:    make(map[string]*Enum),
	}}

	switch {
	case file.Syntax != nil:
		b.schema.Syntax = file.Syntax.Syntax.AsString()
	case file.Edition != nil:
		b.schema.Syntax = file.Edition.Edition.AsString()
	}

	// Names are qualified with the package wherever it is declared.
	for _, decl := range file.Decls {
		if pkg, ok := decl.(*ast.PackageNode); ok {
			b.schema.Package = string(pkg.Name.AsIdentifier())
		}
	}

	for _, decl := range file.Decls {
		switch n := decl.(type) {
		case *ast.MessageNode:
			b.message(n.Name.Val, "", n.Decls)
		case *ast.EnumNode:
			b.enum(n, "")
		case *ast.ServiceNode:
			b.service(n)
		}
	}
	return b.schema
}

func (b *builder) fullName(parent, name string) string {
	if parent != "" {
		return parent + "." + name
	}
	return b.schema.qualify(name)
}

func (b *builder) message(name, parent string, decls []ast.MessageElement) {
	msg := &Message{Name: name, FullName: b.fullName(parent, name)}
	b.schema.Messages = append(b.schema.Messages, msg)
	b.schema.messages[msg.FullName] = msg

	for _, decl := range decls {
		switch n := decl.(type) {
		case *ast.FieldNode:
			msg.Fields = append(msg.Fields, field(n, msg.FullName, ""))
		case *ast.MapFieldNode:
			msg.Fields = append(msg.Fields, Field{
				Name:    n.Name.Val,
				Type:    string(n.MapType.ValueType.AsIdentifier()),
				KeyType: n.MapType.KeyType.Val,
				Number:  tag(n.Tag),
				scope:   msg.FullName,
			})
		case *ast.GroupNode:
			msg.Fields = append(msg.Fields, b.group(n, msg.FullName, ""))
		case *ast.OneofNode:
			for _, elem := range n.Decls {
				switch f := elem.(type) {
				case *ast.FieldNode:
					msg.Fields = append(msg.Fields, field(f, msg.FullName, n.Name.Val))
				case *ast.GroupNode:
					msg.Fields = append(msg.Fields, b.group(f, msg.FullName, n.Name.Val))
				}
			}
		case *ast.MessageNode:
			b.message(n.Name.Val, msg.FullName, n.Decls)
		case *ast.EnumNode:
			b.enum(n, msg.FullName)
		}
	}
}

func field(n *ast.FieldNode, scope, oneof string) Field {
	return Field{
		Name:     n.Name.Val,
		Type:     string(n.FldType.AsIdentifier()),
		Number:   tag(n.Tag),
		Repeated: n.Label.Repeated,
		Required: n.Label.Required,
		Oneof:    oneof,
		scope:    scope,
	}
}

// group declares the nested message of a proto2 group and returns the field
// that holds it. The field name is the lowercased group name.
func (b *builder) group(n *ast.GroupNode, scope, oneof string) Field {
	b.message(n.Name.Val, scope, n.Decls)
	return Field{
		Name:     strings.ToLower(n.Name.Val),
		Type:     n.Name.Val,
		Number:   tag(n.Tag),
		Repeated: n.Label.Repeated,
		Required: n.Label.Required,
		Oneof:    oneof,
		scope:    scope,
	}
}

func tag(n *ast.UintLiteralNode) int {
	if n == nil {
		return 0
	}
	return int(n.Val)
}

func (b *builder) enum(n *ast.EnumNode, parent string) {
	enum := &Enum{Name: n.Name.Val, FullName: b.fullName(parent, n.Name.Val)}
	for _, decl := range n.Decls {
		if v, ok := decl.(*ast.EnumValueNode); ok {
			enum.Values = append(enum.Values, v.Name.Val)
		}
	}
	b.schema.Enums = append(b.schema.Enums, enum)
	b.schema.enums[enum.FullName] = enum
}

func (b *builder) service(n *ast.ServiceNode) {
	svc := Service{Name: b.schema.qualify(n.Name.Val)}
	for _, decl := range n.Decls {
		rpc, ok := decl.(*ast.RPCNode)
		if !ok {
			continue
		}
		svc.Methods = append(svc.Methods, Method{
			Name:   rpc.Name.Val,
			Type:   grpcurl.ShapeOf(rpc.Input.Stream != nil, rpc.Output.Stream != nil),
			Input:  string(rpc.Input.MessageType.AsIdentifier()),
			Output: string(rpc.Output.MessageType.AsIdentifier()),
		})
	}
	b.schema.Services = append(b.schema.Services, svc)
}
