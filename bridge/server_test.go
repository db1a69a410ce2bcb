package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/grpcstream/events"
	"github.com/randalmurphal/grpcstream/grpcurl"
	"github.com/randalmurphal/grpcstream/session"
)

const mockScript = `#!/bin/sh
case "$1 $2" in
  "-plaintext localhost:50051")
    printf 'chat.Chat\ngrpc.health.v1.Health\n'
    exit 0
    ;;
esac
cat > /dev/null
printf '{\n  "i": 1\n}\n{"i": 2}\n'
`

const testProto = `syntax = "proto3";
package demo;
message Ping { string text = 1; int32 count = 2; }
service Echo { rpc Stream (Ping) returns (stream Ping); }
`

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "grpcurl")
	require.NoError(t, os.WriteFile(script, []byte(mockScript), 0o755))

	bus := events.New(64)
	mgr := session.NewManager(
		session.WithClient(grpcurl.NewClient(grpcurl.WithPath(script))),
		session.WithPublisher(bus),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mgr.Close(ctx)
		bus.Close()
	})
	return NewServer(mgr, bus, WithTimeout(5*time.Second)), mgr
}

func handle(t *testing.T, s *Server, line string) Response {
	t.Helper()
	return s.Handle(context.Background(), []byte(line))
}

// roundTrip converts a result to plain JSON values for comparison.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHandle_RequestErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{"invalid json", `{"op":`, "invalid request"},
		{"unknown op", `{"id":1,"op":"explode"}`, `unknown op "explode"`},
		{"unknown param field", `{"id":2,"op":"list","params":{"addr":"x"}}`, "invalid params"},
		{"missing address", `{"id":3,"op":"list","params":{}}`, "address is required"},
		{"missing service", `{"id":4,"op":"describe","params":{"address":"a:1"}}`, "address and service are required"},
		{"bad signal", `{"id":5,"op":"signal","params":{"address":"a","method":"m","signal":"stop"}}`, "invalid signal"},
		{"send without session", `{"id":6,"op":"send","params":{"address":"a","method":"m","message":{}}}`, "no active stream"},
		{"unary via start", `{"id":7,"op":"start","params":{"address":"a","method":"m","rpc_type":"unary"}}`, "invalid call shape"},
		{"sample needs message", `{"id":8,"op":"proto.sample","params":{"content":"message A {}"}}`, "message is required"},
		{"bad proto", `{"id":9,"op":"proto.parse","params":{"content":"message A {"}}`, "parse proto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, tt.line)
			assert.False(t, resp.OK)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestHandle_IDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t)
	resp := handle(t, s, `{"id":"abc","op":"signal","params":{"address":"a","method":"m","signal":"cancel"}}`)
	assert.True(t, resp.OK, resp.Error)
	assert.JSONEq(t, `"abc"`, string(resp.ID))
}

func TestHandle_Sessions(t *testing.T) {
	s, _ := newTestServer(t)
	resp := handle(t, s, `{"id":1,"op":"sessions"}`)
	require.True(t, resp.OK, resp.Error)
	assert.Empty(t, resp.Result)
}

func TestHandle_List(t *testing.T) {
	s, _ := newTestServer(t)
	resp := handle(t, s, `{"id":1,"op":"list","params":{"address":"localhost:50051"}}`)
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, []string{"chat.Chat", "grpc.health.v1.Health"}, resp.Result)
}

func TestHandle_ProtoOps(t *testing.T) {
	s, _ := newTestServer(t)
	content, err := json.Marshal(testProto)
	require.NoError(t, err)

	t.Run("parse", func(t *testing.T) {
		resp := handle(t, s, `{"id":1,"op":"proto.parse","params":{"content":`+string(content)+`}}`)
		require.True(t, resp.OK, resp.Error)
		parsed := roundTrip(t, resp.Result).(map[string]any)
		assert.Equal(t, "demo", parsed["package"])
		services := parsed["services"].([]any)
		require.Len(t, services, 1)
		svc := services[0].(map[string]any)
		assert.Equal(t, "demo.Echo", svc["name"])
		method := svc["methods"].([]any)[0].(map[string]any)
		assert.Equal(t, "server-streaming", method["type"])
	})

	t.Run("sample", func(t *testing.T) {
		resp := handle(t, s, `{"id":2,"op":"proto.sample","params":{"content":`+string(content)+`,"message":"Ping"}}`)
		require.True(t, resp.OK, resp.Error)
		assert.Equal(t, map[string]any{"text": "sample", "count": float64(1)}, roundTrip(t, resp.Result))
	})

	t.Run("validate", func(t *testing.T) {
		resp := handle(t, s, `{"id":3,"op":"proto.validate","params":{"content":`+string(content)+
			`,"message":"Ping","payload":{"text":1,"extra":true}}}`)
		require.True(t, resp.OK, resp.Error)
		result := resp.Result.(ValidationResult)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "text", result.Errors[0].Field)
		assert.Equal(t, "extra", result.Errors[1].Field)
	})

	t.Run("validate ok", func(t *testing.T) {
		resp := handle(t, s, `{"id":4,"op":"proto.validate","params":{"content":`+string(content)+
			`,"message":"Ping","payload":{"text":"hi","count":2}}}`)
		require.True(t, resp.OK, resp.Error)
		assert.Equal(t, map[string]any{"valid": true, "errors": []any{}}, roundTrip(t, resp.Result))
	})
}

// =============================================================================
// Serve
// =============================================================================

func TestServe_StreamingSession(t *testing.T) {
	s, mgr := newTestServer(t)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	served := make(chan error, 1)
	go func() {
		served <- s.Serve(context.Background(), inR, outW)
		_ = outW.Close()
	}()

	lines := make(chan map[string]any, 16)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(outR)
		for sc.Scan() {
			var m map[string]any
			if json.Unmarshal(sc.Bytes(), &m) == nil {
				lines <- m
			}
		}
	}()

	_, err := io.WriteString(inW, `{"id":1,"op":"start","params":{"address":"a:1","method":"demo.Echo/Stream","rpc_type":"server-streaming","request_data":{"text":"hi"}}}`+"\n")
	require.NoError(t, err)

	var (
		startID string
		ended   bool
		ids     []any
		data    []any
	)
	timeout := time.After(5 * time.Second)
loop:
	for {
		select {
		case m := <-lines:
			switch {
			case m["id"] != nil:
				require.Equal(t, true, m["ok"], m["error"])
				startID, _ = m["result"].(map[string]any)["id"].(string)
			case m["event"] == string(events.Data):
				assert.Equal(t, "a:1-demo.Echo/Stream", m["session"])
				ids = append(ids, m["session_id"])
				data = append(data, m["payload"])
			case m["event"] == string(events.End):
				ids = append(ids, m["session_id"])
				ended = true
			}
			// The response and the events race; wait for both.
			if ended && startID != "" {
				break loop
			}
		case <-timeout:
			t.Fatal("timeout waiting for end event")
		}
	}

	require.NotEmpty(t, startID)
	assert.Equal(t, []any{startID, startID, startID}, ids)
	assert.Equal(t, []any{
		map[string]any{"i": float64(1)},
		map[string]any{"i": float64(2)},
	}, data)

	require.NoError(t, inW.Close())
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after input closed")
	}
	assert.Eventually(t, func() bool { return mgr.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServe_ContextCancel(t *testing.T) {
	s, _ := newTestServer(t)
	inR, inW := io.Pipe()
	defer inW.Close()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, inR, io.Discard) }()

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// =============================================================================
// Schema
// =============================================================================

func TestSchema(t *testing.T) {
	schemas := Schema()
	assert.Len(t, schemas, len(Ops()))

	for _, op := range Ops() {
		require.Contains(t, schemas, op)
		assert.Equal(t, op, schemas[op].Title)
	}

	start := roundTrip(t, schemas[OpStart]).(map[string]any)
	props := start["properties"].(map[string]any)
	assert.Contains(t, props, "address")
	assert.Contains(t, props, "request_data")
	rpcType := props["rpc_type"].(map[string]any)
	assert.ElementsMatch(t,
		[]any{"unary", "server-streaming", "client-streaming", "bidirectional-streaming"},
		rpcType["enum"])

	signal := roundTrip(t, schemas[OpSignal]).(map[string]any)
	assert.Contains(t, signal["properties"].(map[string]any), "signal")

	req := roundTrip(t, RequestSchema()).(map[string]any)
	assert.Contains(t, req["properties"].(map[string]any), "op")
}
