package bridge

import (
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/grpcstream/session"
)

// paramTypes maps every op to a zero value of its params type.
var paramTypes = map[string]any{
	OpStart:         &session.CallRequest{},
	OpSignal:        &session.SignalRequest{},
	OpSend:          &session.SendRequest{},
	OpInvoke:        &session.CallRequest{},
	OpSessions:      &EmptyParams{},
	OpList:          &AddressParams{},
	OpDescribe:      &DescribeParams{},
	OpProtoParse:    &ProtoParams{},
	OpProtoSample:   &ProtoParams{},
	OpProtoValidate: &ProtoParams{},
}

// Ops returns the supported op names in sorted order.
func Ops() []string {
	ops := make([]string, 0, len(paramTypes))
	for op := range paramTypes {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Schema returns the JSON Schema of each op's params, keyed by op.
func Schema() map[string]*jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}

	schemas := make(map[string]*jsonschema.Schema, len(paramTypes))
	for op, params := range paramTypes {
		s := r.Reflect(params)
		s.Title = op
		schemas[op] = s
	}
	return schemas
}

// RequestSchema returns the JSON Schema of a request line.
func RequestSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	s := r.Reflect(&Request{})
	s.Title = "request"
	return s
}
