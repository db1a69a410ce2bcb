package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

func TestKey(t *testing.T) {
	k := KeyOf("localhost:50051", "chat.Chat/Talk")
	assert.Equal(t, "localhost:50051-chat.Chat/Talk", k.String())
	assert.Equal(t, k, CallRequest{Address: "localhost:50051", Method: "chat.Chat/Talk"}.Key())

	// Structured keys do not collide where the string form would.
	assert.NotEqual(t, KeyOf("a-b", "c"), KeyOf("a", "b-c"))
	assert.Equal(t, KeyOf("a-b", "c").String(), KeyOf("a", "b-c").String())
}

func TestParseSignal(t *testing.T) {
	for _, name := range []string{"cancel", "end", "pause", "resume"} {
		sig, err := ParseSignal(name)
		require.NoError(t, err)
		assert.Equal(t, Signal(name), sig)
	}

	_, err := ParseSignal("restart")
	require.ErrorIs(t, err, ErrInvalidSignal)
	assert.Contains(t, err.Error(), "restart")
}

func TestParseCollisionPolicy(t *testing.T) {
	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionReplace, p)

	p, err = ParseCollisionPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, CollisionReject, p)

	_, err = ParseCollisionPolicy("queue")
	assert.Error(t, err)
}

func TestCallRequest_InitialPayload(t *testing.T) {
	tests := []struct {
		name    string
		req     CallRequest
		want    string
		wantNil bool
		wantErr error
	}{
		{
			name: "server streaming uses request data",
			req:  CallRequest{RPCType: grpcurl.ServerStreaming, RequestData: json.RawMessage("{\n  \"n\": 3\n}")},
			want: `{"n":3}`,
		},
		{
			name: "server streaming defaults to empty object",
			req:  CallRequest{RPCType: grpcurl.ServerStreaming},
			want: `{}`,
		},
		{
			name: "server streaming null is empty",
			req:  CallRequest{RPCType: grpcurl.ServerStreaming, RequestData: json.RawMessage("null")},
			want: `{}`,
		},
		{
			name: "client streaming uses streaming data",
			req: CallRequest{
				RPCType:       grpcurl.ClientStreaming,
				RequestData:   json.RawMessage(`{"ignored":true}`),
				StreamingData: json.RawMessage(`{"a": 1}`),
			},
			want: `{"a":1}`,
		},
		{
			name:    "bidi without first message writes nothing",
			req:     CallRequest{RPCType: grpcurl.BidirectionalStreaming},
			wantNil: true,
		},
		{
			name:    "invalid json",
			req:     CallRequest{RPCType: grpcurl.ServerStreaming, RequestData: json.RawMessage(`{oops`)},
			wantErr: ErrSerialization,
		},
		{
			name:    "unknown shape",
			req:     CallRequest{RPCType: "duplex"},
			wantErr: ErrInvalidCallShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.initialPayload()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestError(t *testing.T) {
	err := newError("send", KeyOf("a:1", "/Ping"), ErrNoActiveStream)
	assert.Equal(t, "session send a:1-/Ping: no active stream", err.Error())
	assert.True(t, IsNoActiveStream(err))
	assert.False(t, IsLaunch(err))

	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "send", sessErr.Op)
}
