package client

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/httpc-direct/arena"
	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/protocol"
)

type chunkState int

const (
	chunkAwaitSize chunkState = iota
	chunkConsumePayload
	chunkAwaitTrailingCRLF
	chunkAwaitFinalCRLF
	chunkTerminal
)

// Chunk is a view of some or all of one chunk's payload. It is valid until
// the next Recv.
type Chunk struct {
	view    arena.View
	partial bool
}

func (c Chunk) Lo() int { return c.view.Lo() }

func (c Chunk) Hi() int { return c.view.Hi() }

func (c Chunk) Len() int { return c.view.Len() }

// Bytes returns the payload without copying.
func (c Chunk) Bytes() ([]byte, error) {
	return c.view.Bytes()
}

// View returns the underlying arena view.
func (c Chunk) View() arena.View {
	return c.view
}

// Partial reports whether more payload of the same chunk follows.
func (c Chunk) Partial() bool {
	return c.partial
}

// ChunkedResponse decodes a chunked body in place. Payload is returned as
// views into the client arena; the arena is refilled from the socket when
// buffered data runs out.
type ChunkedResponse struct {
	c         *Client
	lo, hi    int
	remaining int64
	state     chunkState
	chunks    int
}

func (r *ChunkedResponse) reset() {
	r.begin(0, 0)
}

// begin starts decoding from the bytes in [lo, hi) left after the headers.
func (r *ChunkedResponse) begin(lo, hi int) {
	r.lo, r.hi = lo, hi
	r.remaining = 0
	r.state = chunkAwaitSize
	r.chunks = 0
}

// Recv returns the next run of payload using the client's default timeout.
func (r *ChunkedResponse) Recv() (Chunk, error) {
	return r.RecvTimeout(r.c.cfg.timeout)
}

// RecvTimeout returns the largest buffered run of the current chunk's
// payload, receiving more data when nothing is buffered. It returns io.EOF
// once the terminating chunk has been read.
func (r *ChunkedResponse) RecvTimeout(timeout time.Duration) (Chunk, error) {
	if err := r.c.expectSent(); err != nil {
		return Chunk{}, err
	}
	if r.state == chunkTerminal {
		return Chunk{}, io.EOF
	}
	chunked, err := r.c.headers.IsChunked()
	if err != nil {
		return Chunk{}, err
	}
	if !chunked {
		return Chunk{}, httperrors.NewStateError(httperrors.StateErrorInvalidTransition, "response is not chunked")
	}

	a := r.c.buf
	a.Invalidate()

	for {
		switch r.state {
		case chunkAwaitSize:
			i := protocol.IndexCRLF(a.Span(r.lo, r.hi))
			if i < 0 {
				if err := r.fill(timeout); err != nil {
					return Chunk{}, err
				}
				continue
			}
			size, err := protocol.ParseChunkSize(a.Span(r.lo, r.lo+i))
			if err != nil {
				return Chunk{}, err
			}
			r.lo += i + 2
			if size == 0 {
				r.state = chunkAwaitFinalCRLF
			} else {
				r.remaining = size
				r.state = chunkConsumePayload
			}

		case chunkConsumePayload:
			if r.lo == r.hi {
				if err := r.fill(timeout); err != nil {
					return Chunk{}, err
				}
				continue
			}
			n := int64(r.hi - r.lo)
			if n > r.remaining {
				n = r.remaining
			}
			v, err := a.View(r.lo, r.lo+int(n))
			if err != nil {
				return Chunk{}, err
			}
			r.lo += int(n)
			r.remaining -= n
			if r.remaining == 0 {
				r.state = chunkAwaitTrailingCRLF
				r.chunks++
			}
			return Chunk{view: v, partial: r.remaining > 0}, nil

		case chunkAwaitTrailingCRLF, chunkAwaitFinalCRLF:
			if r.hi-r.lo < 2 {
				if err := r.fill(timeout); err != nil {
					return Chunk{}, err
				}
				continue
			}
			if !bytes.Equal(a.Span(r.lo, r.lo+2), []byte("\r\n")) {
				return Chunk{}, httperrors.NewProtocolError(
					httperrors.ProtocolErrorInvalidChunkedEncoding,
					fmt.Sprintf("expected CRLF [got=%q]", a.Span(r.lo, r.lo+2)),
				)
			}
			r.lo += 2
			if r.state == chunkAwaitTrailingCRLF {
				r.state = chunkAwaitSize
				continue
			}
			r.state = chunkTerminal
			r.c.log.Debug("chunked body finished", zap.Int("chunks", r.chunks))
			return Chunk{}, io.EOF

		default:
			return Chunk{}, io.EOF
		}
	}
}

// fill receives more data after the buffered tail. A fully consumed buffer
// starts over at the base; a pending partial line is moved there first.
func (r *ChunkedResponse) fill(timeout time.Duration) error {
	a := r.c.buf
	if r.lo == r.hi {
		r.lo, r.hi = 0, 0
	} else if r.lo > 0 {
		r.hi = a.Shift(r.lo, r.hi)
		r.lo = 0
	}
	if r.hi == a.Cap() {
		return httperrors.NewProtocolError(
			httperrors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("chunk size line exceeds %d bytes", a.Cap()),
		)
	}
	n, err := r.c.recvOrDie(r.hi, timeout)
	if err != nil {
		return err
	}
	r.hi += n
	return nil
}

// WriteTo copies the rest of the body to w.
func (r *ChunkedResponse) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		chunk, err := r.Recv()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		b, err := chunk.Bytes()
		if err != nil {
			return total, err
		}
		n, err := w.Write(b)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}
