package session

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/grpcstream/grpcurl"
)

// stream is the live state of one session. The process handle is owned by
// the stream; only the registry entry holder (or the stdout pump, after the
// process exits) may terminate or reap it.
type stream struct {
	key       Key
	id        string
	rpcType   grpcurl.RPCType
	startedAt time.Time
	cmd       *exec.Cmd
	proto     *grpcurl.ProtoFile

	// mu guards stdin and exited.
	mu     sync.Mutex
	stdin  io.WriteCloser // nil once ended or for server-streaming calls
	exited bool

	// paused is read lock-free by the stdout pump.
	paused atomic.Bool

	// detached is set when the registry no longer points at this stream.
	detached atomic.Bool

	// reapMu orders kill against reaping. reaped is set before the pid can
	// be recycled.
	reapMu sync.Mutex
	reaped bool

	// done is closed once the process has been reaped.
	done chan struct{}
}

func newStream(key Key, id string, rpcType grpcurl.RPCType, cmd *exec.Cmd) *stream {
	return &stream{
		key:       key,
		id:        id,
		rpcType:   rpcType,
		startedAt: time.Now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
}

// write sends one newline-terminated payload. Caller must hold mu.
func (s *stream) write(payload []byte) error {
	if s.stdin == nil || s.exited || s.detached.Load() {
		return ErrNoActiveStream
	}
	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')
	if _, err := s.stdin.Write(line); err != nil {
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	return nil
}

// closeInput closes and drops stdin if it is open. Caller must hold mu.
func (s *stream) closeInput() error {
	if s.stdin == nil {
		return nil
	}
	stdin := s.stdin
	s.stdin = nil
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("%w: close input: %v", ErrIO, err)
	}
	return nil
}

// kill forcibly terminates the process. It is a no-op once the process has
// been reaped, so a recycled pid is never signalled.
func (s *stream) kill() error {
	s.reapMu.Lock()
	defer s.reapMu.Unlock()
	if s.reaped {
		return nil
	}
	return killProcess(s.cmd)
}

// wait reaps the process. Where the platform can observe an exit without
// reaping, kill is disabled while the pid still names the zombie.
func (s *stream) wait() error {
	if waitExited(s.pid()) {
		s.markReaped()
	}
	err := s.cmd.Wait()
	s.markReaped()
	return err
}

func (s *stream) markReaped() {
	s.reapMu.Lock()
	s.reaped = true
	s.reapMu.Unlock()
}

func (s *stream) pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// info snapshots the stream. Caller must hold mu.
func (s *stream) info() Info {
	return Info{
		Key:       s.key,
		ID:        s.id,
		RPCType:   s.rpcType,
		PID:       s.pid(),
		InputOpen: s.stdin != nil && !s.exited,
		Paused:    s.paused.Load(),
		StartedAt: s.startedAt,
	}
}
