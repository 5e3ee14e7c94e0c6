package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/httpc-direct/transport"
)

const (
	DefaultTimeout          = 5 * time.Second
	DefaultBufferSize       = 64 * 1024
	DefaultHeaderBufferSize = 4 * 1024
)

type config struct {
	timeout          time.Duration
	bufferSize       int
	headerBufferSize int
	transport        transport.Transport
	waiter           transport.Waiter
	logger           *zap.Logger
}

func defaultConfig() config {
	return config{
		timeout:          DefaultTimeout,
		bufferSize:       DefaultBufferSize,
		headerBufferSize: DefaultHeaderBufferSize,
	}
}

// Option configures a Client.
type Option func(*config)

// WithTimeout sets the default bound for every readiness wait.
// A negative timeout waits forever.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithBufferSize sets the capacity of the request/response arena.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithHeaderBufferSize sets how many bytes of response headers are kept.
func WithHeaderBufferSize(n int) Option {
	return func(c *config) {
		c.headerBufferSize = n
	}
}

// WithTransport replaces the default TCP transport. The client takes
// ownership and destroys it on Close.
func WithTransport(t transport.Transport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithWaiter replaces the platform's default readiness backend.
func WithWaiter(w transport.Waiter) Option {
	return func(c *config) {
		c.waiter = w
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
