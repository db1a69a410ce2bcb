package grpcurl

import (
	"fmt"
	"strings"
)

// RPCType is the call shape of a method.
type RPCType string

// Call shapes, using the wire names shared with clients.
const (
	Unary                  RPCType = "unary"
	ServerStreaming        RPCType = "server-streaming"
	ClientStreaming        RPCType = "client-streaming"
	BidirectionalStreaming RPCType = "bidirectional-streaming"
)

// ParseRPCType converts a wire name to an RPCType.
func ParseRPCType(s string) (RPCType, error) {
	switch t := RPCType(strings.TrimSpace(s)); t {
	case Unary, ServerStreaming, ClientStreaming, BidirectionalStreaming:
		return t, nil
	default:
		return "", fmt.Errorf("unknown rpc type %q", s)
	}
}

// ShapeOf derives the call shape from the stream markers of a method.
func ShapeOf(clientStream, serverStream bool) RPCType {
	switch {
	case clientStream && serverStream:
		return BidirectionalStreaming
	case serverStream:
		return ServerStreaming
	case clientStream:
		return ClientStreaming
	default:
		return Unary
	}
}

// Streaming reports whether the call shape keeps a session open.
func (t RPCType) Streaming() bool {
	return t == ServerStreaming || t == ClientStreaming || t == BidirectionalStreaming
}

// SendsStream reports whether the client side streams messages.
func (t RPCType) SendsStream() bool {
	return t == ClientStreaming || t == BidirectionalStreaming
}

// MethodSignature describes one method reported by "describe".
type MethodSignature struct {
	Name      string  `json:"name"`
	Input     string  `json:"input"`
	Output    string  `json:"output"`
	Streaming RPCType `json:"streaming"`
}

// MethodPath normalizes a method identifier for the command line.
// Paths that already contain "/" or "." are returned unchanged; bare names
// get a leading "/".
func MethodPath(method string) string {
	if strings.ContainsAny(method, "/.") {
		return method
	}
	return "/" + method
}
