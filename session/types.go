package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

// Key identifies a session by target address and method.
type Key struct {
	Address string `json:"address"`
	Method  string `json:"method"`
}

// KeyOf returns the key for address and method.
func KeyOf(address, method string) Key {
	return Key{Address: address, Method: method}
}

// String returns the wire form "{address}-{method}" used in events.
func (k Key) String() string {
	return k.Address + "-" + k.Method
}

// CallRequest describes a call to start.
type CallRequest struct {
	Address string `json:"address"`
	Method  string `json:"method"`

	// RequestData is the request body for unary and server-streaming calls.
	RequestData json.RawMessage `json:"request_data,omitempty"`

	// StreamingData is the optional first message of a client-streaming or
	// bidirectional-streaming call.
	StreamingData json.RawMessage `json:"streaming_data,omitempty"`

	// ProtoContent is optional proto source used instead of server reflection.
	ProtoContent string `json:"proto_content,omitempty"`

	RPCType grpcurl.RPCType `json:"rpc_type" jsonschema:"enum=unary,enum=server-streaming,enum=client-streaming,enum=bidirectional-streaming"`

	// Plaintext overrides the client's transport default when set.
	Plaintext *bool `json:"plaintext,omitempty"`
}

// Key returns the session key for the request.
func (r CallRequest) Key() Key {
	return KeyOf(r.Address, r.Method)
}

// initialPayload returns the compacted body to prime stdin with, or nil when
// nothing should be written.
func (r CallRequest) initialPayload() ([]byte, error) {
	switch r.RPCType {
	case grpcurl.ServerStreaming, grpcurl.Unary:
		if isEmptyJSON(r.RequestData) {
			return []byte("{}"), nil
		}
		return compactJSON(r.RequestData)
	case grpcurl.ClientStreaming, grpcurl.BidirectionalStreaming:
		if isEmptyJSON(r.StreamingData) {
			return nil, nil
		}
		return compactJSON(r.StreamingData)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCallShape, r.RPCType)
	}
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func compactJSON(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// Signal is a control signal applied to a running session.
type Signal string

// Signals accepted by Manager.Signal.
const (
	Cancel Signal = "cancel"
	End    Signal = "end"
	Pause  Signal = "pause"
	Resume Signal = "resume"
)

// ParseSignal converts a signal name to a Signal.
func ParseSignal(name string) (Signal, error) {
	switch s := Signal(strings.TrimSpace(name)); s {
	case Cancel, End, Pause, Resume:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSignal, name)
	}
}

// SignalRequest is the wire form of a signal.
type SignalRequest struct {
	Address string `json:"address"`
	Method  string `json:"method"`
	Signal  string `json:"signal" jsonschema:"enum=cancel,enum=end,enum=pause,enum=resume"`
}

// SendRequest is the wire form of a message sent into an open session.
type SendRequest struct {
	Address string          `json:"address"`
	Method  string          `json:"method"`
	Message json.RawMessage `json:"message"`
}

// Info is a point-in-time view of an active session.
type Info struct {
	Key       Key             `json:"key"`
	ID        string          `json:"id"`
	RPCType   grpcurl.RPCType `json:"rpc_type"`
	PID       int             `json:"pid"`
	InputOpen bool            `json:"input_open"`
	Paused    bool            `json:"paused"`
	StartedAt time.Time       `json:"started_at"`
}

// CollisionPolicy decides what Start does when the key is already active.
type CollisionPolicy string

const (
	// CollisionReplace terminates the running session and starts the new one.
	CollisionReplace CollisionPolicy = "replace"

	// CollisionReject fails the new call with ErrSessionExists.
	CollisionReject CollisionPolicy = "reject"
)

// ParseCollisionPolicy converts a policy name. The empty string means replace.
func ParseCollisionPolicy(name string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.TrimSpace(name)); p {
	case "":
		return CollisionReplace, nil
	case CollisionReplace, CollisionReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q", name)
	}
}
