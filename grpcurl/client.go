package grpcurl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Client builds and runs grpcurl commands.
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	path      string
	plaintext bool
	insecure  bool
	tempDir   string
	headers   []string
	env       []string
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// NewClient creates a Client. By default it runs "grpcurl" from PATH over
// plain-text connections.
func NewClient(opts ...Option) *Client {
	c := &Client{
		path:      DefaultPath,
		plaintext: true,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithPath sets the grpcurl binary path.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithPlaintext selects plain-text (true) or TLS (false) transport by default.
func WithPlaintext(plaintext bool) Option {
	return func(c *Client) { c.plaintext = plaintext }
}

// WithInsecure skips server certificate verification on TLS connections.
// It has no effect on plain-text calls.
func WithInsecure(insecure bool) Option {
	return func(c *Client) { c.insecure = insecure }
}

// WithTempDir sets where proto text is staged. Default: os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *Client) { c.tempDir = dir }
}

// WithHeaders adds "name: value" headers to every call.
func WithHeaders(headers ...string) Option {
	return func(c *Client) { c.headers = append(c.headers, headers...) }
}

// WithEnv adds environment variables ("KEY=value") to every grpcurl process.
func WithEnv(env ...string) Option {
	return func(c *Client) { c.env = append(c.env, env...) }
}

// WithLogger sets the logger used for command tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Path returns the configured binary path.
func (c *Client) Path() string {
	return c.path
}

// StageProto stages proto text in the client's temp directory.
func (c *Client) StageProto(content string) (*ProtoFile, error) {
	return StageProto(c.tempDir, content)
}

// CallOptions describes one invocation of a method.
type CallOptions struct {
	Address string
	Method  string

	// Proto is an optional staged schema used instead of server reflection.
	Proto *ProtoFile

	// Plaintext overrides the client default when set.
	Plaintext *bool

	// MaxTime bounds the whole call inside grpcurl. Zero means no limit.
	MaxTime time.Duration
}

// CallArgs builds the argument list for a call that reads its request body
// from stdin.
func (c *Client) CallArgs(opts CallOptions) []string {
	args := c.transportArgs(opts.Plaintext)
	if opts.MaxTime > 0 {
		args = append(args, FlagMaxTime, strconv.FormatFloat(opts.MaxTime.Seconds(), 'f', -1, 64))
	}
	if opts.Proto != nil {
		args = append(args,
			FlagImportPath, opts.Proto.Dir(),
			FlagProto, opts.Proto.Path,
		)
	}
	args = append(args, FlagData, DataFromStdin)
	args = append(args, opts.Address, MethodPath(opts.Method))
	return args
}

func (c *Client) transportArgs(override *bool) []string {
	plaintext := c.plaintext
	if override != nil {
		plaintext = *override
	}

	var args []string
	switch {
	case plaintext:
		args = append(args, FlagPlaintext)
	case c.insecure:
		args = append(args, FlagInsecure)
	}
	for _, h := range c.headers {
		args = append(args, FlagHeader, h)
	}
	return args
}

// Command returns an unstarted grpcurl command whose lifetime is not tied to
// a context. Streaming sessions use it and terminate the process themselves.
func (c *Client) Command(args []string) *exec.Cmd {
	cmd := exec.Command(c.path, args...)
	c.prepare(cmd)
	return cmd
}

// CommandContext returns an unstarted grpcurl command killed when ctx ends.
func (c *Client) CommandContext(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.path, args...)
	c.prepare(cmd)
	return cmd
}

func (c *Client) prepare(cmd *exec.Cmd) {
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	c.log.Debug("grpcurl command", slog.String("command", c.path+" "+strings.Join(cmd.Args[1:], " ")))
}

// run executes a one-shot command and returns its standard output.
func (c *Client) run(ctx context.Context, op string, stdin []byte, args []string) ([]byte, error) {
	cmd := c.CommandContext(ctx, args)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, c.runError(ctx, op, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *Client) runError(ctx context.Context, op string, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("grpcurl %s: %w", op, ctxErr)
	}
	if IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, c.path)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Op: op, ExitCode: exitErr.ExitCode(), Stderr: stderr, Err: err}
	}
	return fmt.Errorf("grpcurl %s: %w", op, err)
}

// IsNotFound reports whether err means the binary could not be executed
// because it does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotFound)
}
