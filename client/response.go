package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/httpc-direct/arena"
	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/protocol"
)

// ResponseHeaders reads the status line and headers of the response to the
// last sent request. Header views stay valid until the next Send.
type ResponseHeaders struct {
	c      *Client
	parser *protocol.HeaderParser
	pool   *protocol.ViewPool
	recvs  int
}

func (h *ResponseHeaders) init() {
	h.pool.Clear()
	h.parser.Clear()
	h.recvs = 0
	h.c.chunked.reset()
}

// Await receives until the header block is complete, using the client's
// default timeout for each wait.
func (h *ResponseHeaders) Await() error {
	return h.AwaitTimeout(h.c.cfg.timeout)
}

// AwaitTimeout receives until the header block is complete. Bytes after the
// block are handed to the chunked decoder.
func (h *ResponseHeaders) AwaitTimeout(timeout time.Duration) error {
	if err := h.c.expectSent(); err != nil {
		return err
	}
	for h.parser.IsIncomplete() {
		n, err := h.c.recvOrDie(0, timeout)
		if err != nil {
			return err
		}
		h.recvs++

		consumed, err := h.parser.Parse(h.c.buf.Span(0, n))
		if err != nil {
			return err
		}
		h.c.chunked.begin(consumed, n)
	}
	h.c.log.Debug("headers received",
		zap.Int("status", h.parser.StatusCode()),
		zap.Int("headers", h.parser.HeaderCount()),
		zap.Int("receives", h.recvs))
	return nil
}

// IsComplete reports whether the whole header block has arrived.
func (h *ResponseHeaders) IsComplete() bool {
	return !h.parser.IsIncomplete()
}

// IsChunked reports whether the body uses chunked transfer encoding.
func (h *ResponseHeaders) IsChunked() (bool, error) {
	if h.parser.IsIncomplete() {
		return false, httperrors.NewProtocolError(httperrors.ProtocolErrorHeadersIncomplete, "")
	}
	v, ok := h.parser.Header("Transfer-Encoding")
	return ok && v.EqualFold("chunked"), nil
}

// StatusCode returns the response status, or 0 before the status line.
func (h *ResponseHeaders) StatusCode() int {
	return h.parser.StatusCode()
}

func (h *ResponseHeaders) Reason() string {
	return h.parser.Reason().String()
}

// Header returns a zero-copy view of the first header called name.
func (h *ResponseHeaders) Header(name string) (arena.View, bool) {
	return h.parser.Header(name)
}

// HeaderString returns a copy of the header value, or "" when absent.
func (h *ResponseHeaders) HeaderString(name string) string {
	v, ok := h.parser.Header(name)
	if !ok {
		return ""
	}
	return v.String()
}

// ContentLength returns the declared body length, or -1.
func (h *ResponseHeaders) ContentLength() int64 {
	return h.parser.ContentLength()
}

// Chunked returns the body decoder for this response.
func (h *ResponseHeaders) Chunked() *ChunkedResponse {
	return &h.c.chunked
}

// Close releases the header arena. It is idempotent.
func (h *ResponseHeaders) Close() error {
	return h.parser.Close()
}

func (c *Client) expectSent() error {
	if c.closed {
		return errClosed()
	}
	if c.request.state != stateSent {
		return httperrors.NewStateError(
			httperrors.StateErrorInvalidTransition,
			"no request in flight [state="+c.request.state.String()+"]",
		)
	}
	return nil
}
