package client

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/protocol"
)

type requestState int

const (
	stateRequest requestState = iota
	stateURL
	stateURLDone
	stateQuery
	stateHeader
	stateSent
)

func (s requestState) String() string {
	switch s {
	case stateRequest:
		return "REQUEST"
	case stateURL:
		return "URL"
	case stateURLDone:
		return "URL_DONE"
	case stateQuery:
		return "QUERY"
	case stateHeader:
		return "HEADER"
	case stateSent:
		return "SENT"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const httpVersionLine = " HTTP/1.1\r\n"

// Request writes an HTTP request straight into the client's arena.
//
// Methods chain. The first contract violation or buffer overflow is kept
// and reported by Err and Send; later calls become no-ops.
type Request struct {
	c     *Client
	state requestState
	err   error
}

// Err returns the first error recorded while building the request.
func (r *Request) Err() error {
	return r.err
}

// GET starts a GET request line.
func (r *Request) GET() *Request {
	if r.expect("GET", stateRequest) {
		r.put("GET ")
		r.state = stateURL
	}
	return r
}

// URL appends the path verbatim.
func (r *Request) URL(path string) *Request {
	if r.expect("URL", stateURL) {
		r.put(path)
		r.state = stateURLDone
	}
	return r
}

// Query appends a percent-encoded name=value pair to the URL.
func (r *Request) Query(name, value string) *Request {
	if !r.expect("Query", stateURLDone, stateQuery) {
		return r
	}
	sep := byte('&')
	if r.state == stateURLDone {
		sep = '?'
	}
	r.record(r.c.buf.PutByte(sep))
	r.record(protocol.URLEncode(r.c.buf, name))
	r.record(r.c.buf.PutByte('='))
	r.record(protocol.URLEncode(r.c.buf, value))
	r.state = stateQuery
	return r
}

// Header appends a header line, closing the request line first if needed.
func (r *Request) Header(name, value string) *Request {
	if !r.expect("Header", stateURLDone, stateQuery, stateHeader) {
		return r
	}
	if r.state != stateHeader {
		r.put(httpVersionLine)
	}
	r.put(name)
	r.put(": ")
	r.put(value)
	r.put("\r\n")
	r.state = stateHeader
	return r
}

// Send flushes the request with the client's default timeout.
func (r *Request) Send(host string, port int) (*ResponseHeaders, error) {
	return r.SendTimeout(host, port, r.c.cfg.timeout)
}

// SendTimeout terminates the request, connects if no socket is open and
// writes the whole buffer. Each readiness wait is bounded by timeout.
func (r *Request) SendTimeout(host string, port int, timeout time.Duration) (*ResponseHeaders, error) {
	if !r.expect("Send", stateURLDone, stateQuery, stateHeader) {
		return nil, r.err
	}
	if r.state != stateHeader {
		r.put(httpVersionLine)
	}
	r.put("\r\n")
	if r.err != nil {
		return nil, r.err
	}

	c := r.c
	if err := c.connect(host, port, timeout); err != nil {
		r.err = err
		return nil, err
	}
	if err := c.setupWait(); err != nil {
		r.err = err
		return nil, err
	}
	writes, err := c.flush(timeout)
	if err != nil {
		r.err = err
		return nil, err
	}

	r.state = stateSent
	c.headers.init()
	c.log.Debug("request sent", zap.Int("bytes", c.buf.Len()), zap.Int("writes", writes))
	return &c.headers, nil
}

func (r *Request) expect(op string, allowed ...requestState) bool {
	if r.err != nil {
		return false
	}
	for _, s := range allowed {
		if r.state == s {
			return true
		}
	}
	r.err = httperrors.NewStateError(
		httperrors.StateErrorInvalidTransition,
		fmt.Sprintf("%s not allowed [state=%s]", op, r.state),
	)
	return false
}

func (r *Request) put(s string) {
	r.record(r.c.buf.Put(s))
}

func (r *Request) record(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}
