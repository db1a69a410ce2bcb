package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

// launched is a started process whose output has not been wired yet.
type launched struct {
	stream *stream
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// launch stages the proto text, builds the grpcurl command for req, and
// starts it with all three standard streams piped.
func (m *Manager) launch(req CallRequest) (*launched, error) {
	var proto *grpcurl.ProtoFile
	if req.ProtoContent != "" {
		var err error
		if proto, err = m.config.client.StageProto(req.ProtoContent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
		}
	}

	args := m.config.client.CallArgs(grpcurl.CallOptions{
		Address:   req.Address,
		Method:    req.Method,
		Proto:     proto,
		Plaintext: req.Plaintext,
	})
	cmd := m.config.client.Command(args)
	setProcessGroup(cmd)

	fail := func(step string, err error) (*launched, error) {
		_ = proto.Remove() // Best effort
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunch, step, err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail("create stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail("create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail("create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return fail("start grpcurl", err)
	}

	s := newStream(req.Key(), uuid.NewString(), req.RPCType, cmd)
	s.stdin = stdin
	s.proto = proto

	m.log.Debug("grpcurl started",
		slog.String("key", s.key.String()),
		slog.String("session", s.id),
		slog.String("rpc_type", string(req.RPCType)),
		slog.Int("pid", s.pid()),
	)
	return &launched{stream: s, stdout: stdout, stderr: stderr}, nil
}

// prime writes the initial request body according to the call shape.
// Server-streaming calls get their body and then EOF; client and
// bidirectional calls keep stdin open. Caller must hold s.mu.
func prime(s *stream, payload []byte) error {
	switch s.rpcType {
	case grpcurl.ServerStreaming:
		if err := s.write(payload); err != nil {
			return err
		}
		return s.closeInput()
	default:
		if payload == nil {
			return nil
		}
		return s.write(payload)
	}
}

// abandon reaps a process that never made it into the registry.
func (l *launched) abandon() {
	s := l.stream
	_ = s.kill()
	s.mu.Lock()
	_ = s.closeInput()
	s.mu.Unlock()
	go func() {
		_, _ = io.Copy(io.Discard, l.stdout)
		_, _ = io.Copy(io.Discard, l.stderr)
		_ = s.wait()
		_ = s.proto.Remove()
		close(s.done)
	}()
}
