package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/grpcstream/grpcurl"
	"github.com/randalmurphal/grpcstream/logger"
)

// Manager owns every streaming session it starts.
type Manager struct {
	config   managerConfig
	registry *registry
	log      *slog.Logger
	closed   atomic.Bool
}

// NewManager creates a session manager.
func NewManager(opts ...Option) *Manager {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.collision == "" {
		cfg.collision = CollisionReplace
	}

	log := logger.WithComponent(cfg.logger, "session")
	if cfg.client == nil {
		cfg.client = grpcurl.NewClient(grpcurl.WithLogger(log))
	}

	return &Manager{
		config:   cfg,
		registry: newRegistry(cfg.maxSessions),
		log:      log,
	}
}

// Start spawns grpcurl for a streaming call, primes its input for the call
// shape, and registers the session. Output is relayed as events until the
// process exits.
//
// If the key is already active, the collision policy decides: replace
// terminates the old session, reject returns ErrSessionExists without
// spawning anything.
func (m *Manager) Start(ctx context.Context, req CallRequest) (Info, error) {
	key := req.Key()
	fail := func(err error) (Info, error) {
		return Info{}, newError("start", key, err)
	}

	if m.closed.Load() {
		return fail(ErrManagerClosed)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if req.Address == "" || req.Method == "" {
		return fail(fmt.Errorf("%w: address and method are required", ErrInvalidRequest))
	}
	if !req.RPCType.Streaming() {
		return fail(fmt.Errorf("%w: %q is not a streaming call", ErrInvalidCallShape, req.RPCType))
	}
	payload, err := req.initialPayload()
	if err != nil {
		return fail(err)
	}

	replace := m.config.collision != CollisionReject
	_, active := m.registry.get(key)
	if active && !replace {
		return fail(ErrSessionExists)
	}
	if limit := m.config.maxSessions; limit > 0 && !active && m.registry.len() >= limit {
		return fail(fmt.Errorf("%w (%d)", ErrTooManySessions, limit))
	}

	l, err := m.launch(req)
	if err != nil {
		return fail(err)
	}
	s := l.stream

	// insert repeats both checks under the registry lock.
	s.mu.Lock()
	prev, err := m.registry.insert(s, replace)
	if err != nil {
		s.mu.Unlock()
		l.abandon()
		return fail(err)
	}
	if m.closed.Load() {
		m.registry.removeIf(key, s)
		s.mu.Unlock()
		l.abandon()
		return fail(ErrManagerClosed)
	}

	m.pump(l)
	primeErr := prime(s, payload)
	info := s.info()
	s.mu.Unlock()

	if prev != nil {
		m.log.Info("replacing active session",
			slog.String("key", key.String()),
			slog.String("previous", prev.id),
			slog.String("session", s.id),
		)
		m.terminate(prev)
	}

	if primeErr != nil {
		m.registry.removeIf(key, s)
		m.terminate(s)
		if !errors.Is(primeErr, ErrIO) {
			primeErr = fmt.Errorf("%w: %v", ErrIO, primeErr)
		}
		return fail(primeErr)
	}
	return info, nil
}

// Signal applies a control signal to the session under key.
// Cancel, End, Pause, and Resume on a key with no session are no-ops.
func (m *Manager) Signal(key Key, sig Signal) error {
	switch sig {
	case Cancel:
		s := m.registry.remove(key)
		if s == nil {
			return nil
		}
		m.log.Debug("session cancelled", slog.String("key", key.String()), slog.String("session", s.id))
		m.terminate(s)
		return nil

	case End:
		_, err := m.registry.with(key, func(s *stream) error {
			return s.closeInput()
		})
		if err != nil {
			return newError("signal", key, err)
		}
		return nil

	case Pause, Resume:
		_, _ = m.registry.with(key, func(s *stream) error {
			s.paused.Store(sig == Pause)
			return nil
		})
		return nil

	default:
		return newError("signal", key, fmt.Errorf("%w: %s", ErrInvalidSignal, sig))
	}
}

// SignalRequest parses and applies a wire-form signal.
func (m *Manager) SignalRequest(req SignalRequest) error {
	key := KeyOf(req.Address, req.Method)
	sig, err := ParseSignal(req.Signal)
	if err != nil {
		return newError("signal", key, err)
	}
	return m.Signal(key, sig)
}

// Send encodes payload as JSON and writes it, newline-terminated, into the
// session's open input. It fails with ErrNoActiveStream when the key has no
// session, its input was ended, or its process has exited.
func (m *Manager) Send(key Key, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return newError("send", key, fmt.Errorf("%w: %v", ErrSerialization, err))
	}

	found, err := m.registry.with(key, func(s *stream) error {
		return s.write(data)
	})
	if !found {
		return newError("send", key, ErrNoActiveStream)
	}
	if err != nil {
		return newError("send", key, err)
	}
	return nil
}

// SendRequest applies a wire-form send. The message may be any JSON value,
// null included; only a missing message is rejected.
func (m *Manager) SendRequest(req SendRequest) error {
	key := KeyOf(req.Address, req.Method)
	if len(bytes.TrimSpace(req.Message)) == 0 {
		return newError("send", key, fmt.Errorf("%w: message is required", ErrSerialization))
	}
	return m.Send(key, req.Message)
}

// Invoke performs a unary call. It does not create a session.
func (m *Manager) Invoke(ctx context.Context, req CallRequest) (json.RawMessage, error) {
	key := req.Key()
	if m.closed.Load() {
		return nil, newError("invoke", key, ErrManagerClosed)
	}
	if req.RPCType != "" && req.RPCType != grpcurl.Unary {
		return nil, newError("invoke", key, fmt.Errorf("%w: %q is not a unary call", ErrInvalidCallShape, req.RPCType))
	}

	if m.config.invokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.invokeTimeout)
		defer cancel()
	}

	resp, err := m.config.client.Invoke(ctx, grpcurl.UnaryRequest{
		Address:      req.Address,
		Method:       req.Method,
		Data:         req.RequestData,
		ProtoContent: req.ProtoContent,
		Plaintext:    req.Plaintext,
	})
	if err != nil {
		return nil, newError("invoke", key, err)
	}
	return resp, nil
}

// Client returns the grpcurl client used by the manager.
func (m *Manager) Client() *grpcurl.Client {
	return m.config.client
}

// Active returns a snapshot of the active sessions ordered by key.
func (m *Manager) Active() []Info {
	streams := m.registry.snapshot()
	infos := make([]Info, 0, len(streams))
	for _, s := range streams {
		s.mu.Lock()
		infos = append(infos, s.info())
		s.mu.Unlock()
	}
	return infos
}

// Lookup returns the active session under key.
func (m *Manager) Lookup(key Key) (Info, bool) {
	var info Info
	found, _ := m.registry.with(key, func(s *stream) error {
		info = s.info()
		return nil
	})
	return info, found
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	return m.registry.len()
}

// Wait blocks until the session under key has exited or ctx is done.
// It returns nil immediately when there is no session.
func (m *Manager) Wait(ctx context.Context, key Key) error {
	s, ok := m.registry.get(key)
	if !ok {
		return nil
	}
	return waitDone(ctx, s)
}

// Close cancels every session and waits for their processes to exit.
// The manager rejects new calls afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.closed.Store(true)

	streams := m.registry.drain()
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range streams {
		g.Go(func() error {
			m.terminate(s)
			return waitDone(gctx, s)
		})
	}
	return g.Wait()
}

// terminate kills the process and drops its input. Kill errors are logged
// and otherwise ignored.
func (m *Manager) terminate(s *stream) {
	if err := s.kill(); err != nil {
		m.log.Debug("kill failed", slog.String("key", s.key.String()), slog.Any("error", err))
	}
	s.mu.Lock()
	_ = s.closeInput() // Best effort
	s.mu.Unlock()
}

func waitDone(ctx context.Context, s *stream) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
