package session

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/grpcstream/events"
	"github.com/randalmurphal/grpcstream/grpcurl"
)

// Option configures a Manager.
type Option func(*managerConfig)

// managerConfig holds manager configuration.
type managerConfig struct {
	client        *grpcurl.Client
	publisher     events.Publisher
	logger        *slog.Logger
	collision     CollisionPolicy
	maxSessions   int
	invokeTimeout time.Duration
}

// defaultManagerConfig returns the default manager configuration.
func defaultManagerConfig() managerConfig {
	return managerConfig{
		publisher:     events.Discard,
		collision:     CollisionReplace,
		invokeTimeout: 30 * time.Second,
	}
}

// WithClient sets the grpcurl client used to build and run commands.
func WithClient(client *grpcurl.Client) Option {
	return func(c *managerConfig) { c.client = client }
}

// WithPublisher sets where session events are delivered.
func WithPublisher(p events.Publisher) Option {
	return func(c *managerConfig) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *managerConfig) { c.logger = log }
}

// WithCollisionPolicy sets what Start does for a key that is already active.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(c *managerConfig) { c.collision = p }
}

// WithMaxSessions caps concurrently active sessions. 0 means no limit.
func WithMaxSessions(n int) Option {
	return func(c *managerConfig) { c.maxSessions = n }
}

// WithInvokeTimeout bounds unary calls made through Invoke. 0 disables the
// timeout.
func WithInvokeTimeout(d time.Duration) Option {
	return func(c *managerConfig) { c.invokeTimeout = d }
}
