package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/grpcstream/events"
	"github.com/randalmurphal/grpcstream/framer"
	"github.com/randalmurphal/grpcstream/logger"
	"github.com/randalmurphal/grpcstream/protoschema"
	"github.com/randalmurphal/grpcstream/session"
)

// Server answers control requests against a session manager and forwards
// the manager's events.
type Server struct {
	mgr      *session.Manager
	bus      *events.Bus
	log      *slog.Logger
	timeout  time.Duration
	handlers map[string]handler
}

type handler func(ctx context.Context, params json.RawMessage) (any, error)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = logger.WithComponent(log, "bridge") }
}

// WithTimeout bounds list and describe calls. 0 disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer creates a server. bus must be the publisher the manager was
// created with.
func NewServer(mgr *session.Manager, bus *events.Bus, opts ...Option) *Server {
	s := &Server{
		mgr:     mgr,
		bus:     bus,
		log:     logger.WithComponent(nil, "bridge"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[string]handler{
		OpStart:         s.start,
		OpSignal:        s.signal,
		OpSend:          s.send,
		OpInvoke:        s.invoke,
		OpSessions:      s.sessions,
		OpList:          s.list,
		OpDescribe:      s.describe,
		OpProtoParse:    s.protoParse,
		OpProtoSample:   s.protoSample,
		OpProtoValidate: s.protoValidate,
	}
	return s
}

// conn serializes writes to one output stream.
type conn struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (c *conn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(v)
}

// Serve reads requests from r and writes responses and events to w until r
// is exhausted, ctx is done, or a write fails. In-flight requests finish
// before Serve returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	c := &conn{enc: json.NewEncoder(w)}
	sub, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.readRequests(ctx, c, r)
	})
	g.Go(func() error {
		return forwardEvents(ctx, c, sub)
	})

	return g.Wait()
}

func forwardEvents(ctx context.Context, c *conn, sub <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub:
			if !ok {
				return nil
			}
			if err := c.write(e); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		}
	}
}

type readResult struct {
	line string
	err  error
}

func (s *Server) readRequests(ctx context.Context, c *conn, r io.Reader) error {
	// The reader goroutine may outlive Serve if r blocks after ctx ends.
	lines := make(chan readResult)
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := framer.ReadLine(br)
			select {
			case lines <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(res.line) != "" {
				wg.Add(1)
				go func(line string) {
					defer wg.Done()
					if err := c.write(s.Handle(ctx, []byte(line))); err != nil {
						s.log.Warn("write response failed", slog.Any("error", err))
					}
				}(res.line)
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("read request: %w", res.err)
			}
		}
	}
}

// Handle decodes and executes one request line.
func (s *Server) Handle(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	h, ok := s.handlers[req.Op]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}

	result, err := h(ctx, req.Params)
	if err != nil {
		s.log.Debug("request failed", slog.String("op", req.Op), slog.Any("error", err))
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

// decodeParams decodes raw into v, rejecting unknown fields.
func decodeParams(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// =============================================================================
// Session ops
// =============================================================================

func (s *Server) start(ctx context.Context, raw json.RawMessage) (any, error) {
	var req session.CallRequest
	if err := decodeParams(raw, &req); err != nil {
		return nil, err
	}
	return s.mgr.Start(ctx, req)
}

func (s *Server) signal(_ context.Context, raw json.RawMessage) (any, error) {
	var req session.SignalRequest
	if err := decodeParams(raw, &req); err != nil {
		return nil, err
	}
	return nil, s.mgr.SignalRequest(req)
}

func (s *Server) send(_ context.Context, raw json.RawMessage) (any, error) {
	var req session.SendRequest
	if err := decodeParams(raw, &req); err != nil {
		return nil, err
	}
	return nil, s.mgr.SendRequest(req)
}

func (s *Server) invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var req session.CallRequest
	if err := decodeParams(raw, &req); err != nil {
		return nil, err
	}
	return s.mgr.Invoke(ctx, req)
}

func (s *Server) sessions(_ context.Context, raw json.RawMessage) (any, error) {
	if err := decodeParams(raw, &EmptyParams{}); err != nil {
		return nil, err
	}
	return s.mgr.Active(), nil
}

func (s *Server) list(ctx context.Context, raw json.RawMessage) (any, error) {
	var p AddressParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Address == "" {
		return nil, errors.New("address is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.mgr.Client().ListServices(ctx, p.Address)
}

func (s *Server) describe(ctx context.Context, raw json.RawMessage) (any, error) {
	var p DescribeParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Address == "" || p.Service == "" {
		return nil, errors.New("address and service are required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.mgr.Client().DescribeService(ctx, p.Address, p.Service)
}

// =============================================================================
// Proto ops
// =============================================================================

func parseProto(raw json.RawMessage, needMessage bool) (*protoschema.Schema, ProtoParams, error) {
	var p ProtoParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, p, err
	}
	if needMessage && p.Message == "" {
		return nil, p, errors.New("message is required")
	}
	schema, err := protoschema.Parse(p.Content)
	if err != nil {
		return nil, p, fmt.Errorf("parse proto: %w", err)
	}
	return schema, p, nil
}

func (s *Server) protoParse(_ context.Context, raw json.RawMessage) (any, error) {
	schema, _, err := parseProto(raw, false)
	return schema, err
}

func (s *Server) protoSample(_ context.Context, raw json.RawMessage) (any, error) {
	schema, p, err := parseProto(raw, true)
	if err != nil {
		return nil, err
	}
	return schema.Sample(p.Message), nil
}

func (s *Server) protoValidate(_ context.Context, raw json.RawMessage) (any, error) {
	schema, p, err := parseProto(raw, true)
	if err != nil {
		return nil, err
	}
	payload := p.Payload
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	errs := schema.ValidateJSON(payload, p.Message)
	if errs == nil {
		errs = []protoschema.ValidationError{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}
