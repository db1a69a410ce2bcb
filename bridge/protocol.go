package bridge

import (
	"encoding/json"

	"github.com/randalmurphal/grpcstream/protoschema"
)

// Ops understood by the server.
const (
	OpStart         = "start"
	OpSignal        = "signal"
	OpSend          = "send"
	OpInvoke        = "invoke"
	OpSessions      = "sessions"
	OpList          = "list"
	OpDescribe      = "describe"
	OpProtoParse    = "proto.parse"
	OpProtoSample   = "proto.sample"
	OpProtoValidate = "proto.validate"
)

// Request is one input line.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to one request.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// AddressParams selects a server for reflection calls.
type AddressParams struct {
	Address string `json:"address"`
}

// DescribeParams selects a service to describe.
type DescribeParams struct {
	Address string `json:"address"`
	Service string `json:"service"`
}

// ProtoParams carries proto source for the proto.* ops.
type ProtoParams struct {
	Content string `json:"content"`

	// Message is required by proto.sample and proto.validate.
	Message string `json:"message,omitempty"`

	// Payload is the JSON to check for proto.validate.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ValidationResult is the result of proto.validate.
type ValidationResult struct {
	Valid  bool                          `json:"valid"`
	Errors []protoschema.ValidationError `json:"errors"`
}

// EmptyParams is accepted by ops without parameters.
type EmptyParams struct{}
