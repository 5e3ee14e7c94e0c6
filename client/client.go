// Package client implements a single-connection HTTP/1.1 client that builds
// requests directly into a reusable arena and decodes responses, chunked
// bodies included, as views into the same arena.
//
// A Client is not safe for concurrent use. One request/response cycle is in
// flight at a time: NewRequest retires every view handed out by the previous
// cycle.
package client

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nczempin/httpc-direct/arena"
	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/protocol"
	"github.com/nczempin/httpc-direct/transport"
)

const headerViewCapacity = 32

// Client owns the arena, the socket and the readiness backend.
type Client struct {
	cfg       config
	buf       *arena.Arena
	transport transport.Transport
	waiter    transport.Waiter
	log       *zap.Logger

	request Request
	headers ResponseHeaders
	chunked ChunkedResponse

	host   string
	port   int
	closed bool
}

// New allocates the arenas and the I/O backends.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize <= 0 {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("buffer size must be positive [size=%d]", cfg.bufferSize))
	}
	if cfg.headerBufferSize <= 0 {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("header buffer size must be positive [size=%d]", cfg.headerBufferSize))
	}

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}

	buf, err := arena.New(cfg.bufferSize)
	if err != nil {
		return nil, err
	}

	pool := protocol.NewViewPool(headerViewCapacity)
	parser, err := protocol.NewHeaderParser(cfg.headerBufferSize, pool)
	if err != nil {
		buf.Free()
		return nil, err
	}

	waiter := cfg.waiter
	if waiter == nil {
		if waiter, err = transport.NewDefaultWaiter(); err != nil {
			parser.Close()
			buf.Free()
			return nil, err
		}
	}

	tr := cfg.transport
	if tr == nil {
		tr = transport.NewTcpTransport()
	}

	c := &Client{
		cfg:       cfg,
		buf:       buf,
		transport: tr,
		waiter:    waiter,
		log:       log.Named("httpc"),
	}
	c.request = Request{c: c}
	c.headers = ResponseHeaders{c: c, parser: parser, pool: pool}
	c.chunked = ChunkedResponse{c: c}
	c.headers.init()
	return c, nil
}

// Timeout returns the default wait bound.
func (c *Client) Timeout() time.Duration {
	return c.cfg.timeout
}

// BufferSize returns the arena capacity.
func (c *Client) BufferSize() int {
	return c.buf.Cap()
}

// NewRequest starts a new request at the base of the arena. Views from the
// previous cycle become stale.
func (c *Client) NewRequest() *Request {
	r := &c.request
	if c.closed {
		r.state = stateRequest
		r.err = errClosed()
		return r
	}
	c.buf.Reset()
	r.state = stateRequest
	r.err = nil
	return r
}

// Disconnect closes the socket if one is open. It is idempotent.
func (c *Client) Disconnect() error {
	fd := c.transport.Fd()
	if fd < 0 {
		return nil
	}
	err := c.transport.Close()
	if err != nil {
		c.log.Warn("close failed", zap.Int("fd", fd), zap.Error(err))
	} else {
		c.log.Debug("disconnected", zap.String("host", c.host), zap.Int("port", c.port))
	}
	return err
}

// Close disconnects and releases every resource the client owns. It is
// idempotent; the client is unusable afterwards.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.Disconnect()
	err = multierr.Append(err, c.headers.Close())
	err = multierr.Append(err, c.buf.Free())
	err = multierr.Append(err, c.waiter.Close())
	c.transport.Destroy()
	return err
}

// connect opens the socket unless one is already open. An open socket is
// reused even when the target differs; switching targets needs Disconnect.
func (c *Client) connect(host string, port int, timeout time.Duration) error {
	if c.transport.Fd() >= 0 {
		if host != c.host || port != c.port {
			c.log.Warn("target changed while connected, reusing socket",
				zap.String("host", c.host), zap.Int("port", c.port),
				zap.String("requested_host", host), zap.Int("requested_port", port))
		}
		return nil
	}

	err := c.transport.Connect(host, port)
	if errors.Is(err, transport.ErrConnectPending) {
		err = c.awaitConnect(timeout)
	}
	if err != nil {
		return err
	}

	c.host, c.port = host, port
	c.log.Debug("connected", zap.String("host", host), zap.Int("port", port), zap.Int("fd", c.transport.Fd()))
	return nil
}

func (c *Client) awaitConnect(timeout time.Duration) error {
	err := c.setupWait()
	if err == nil {
		err = c.ioWait(timeout, transport.OpWrite)
	}
	if err == nil {
		err = c.transport.ConnectError()
	}
	if err != nil {
		c.transport.Close()
	}
	return err
}

func errClosed() error {
	return httperrors.NewStateError(httperrors.StateErrorClosed, "")
}
