package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/nczempin/httpc-direct/arena"
	httperrors "github.com/nczempin/httpc-direct/errors"
)

type parseState int

const (
	stateVersion parseState = iota
	stateCode
	stateReason
	stateLineLF
	stateLineStart
	stateName
	stateValueStart
	stateValue
	stateEndLF
	stateDone
)

// HeaderParser incrementally parses an HTTP/1.1 status line and header
// block. Parse may be fed the block in arbitrary pieces; every significant
// byte is copied into the parser's own arena so that the caller can reuse
// its receive buffer between calls. Names and values are exposed as views
// into that arena, registered in the shared ViewPool.
type HeaderParser struct {
	store *arena.Arena
	pool  *ViewPool

	state  parseState
	mark   int
	name   arena.View
	code   int
	digits int

	version arena.View
	reason  arena.View
	first   int // pool index of the first header name
}

// NewHeaderParser creates a parser able to hold size bytes of header data.
func NewHeaderParser(size int, pool *ViewPool) (*HeaderParser, error) {
	store, err := arena.New(size)
	if err != nil {
		return nil, err
	}
	p := &HeaderParser{store: store, pool: pool}
	p.Clear()
	return p, nil
}

// IsIncomplete reports whether the blank line ending the block is still
// missing.
func (p *HeaderParser) IsIncomplete() bool {
	return p.state != stateDone
}

// Clear resets the parser for a new response. Views handed out before are
// retired.
func (p *HeaderParser) Clear() {
	if !p.store.Freed() {
		p.store.Reset()
	}
	p.state = stateVersion
	p.mark = 0
	p.code = 0
	p.digits = 0
	p.name = arena.View{}
	p.version = arena.View{}
	p.reason = arena.View{}
	p.first = p.pool.Len()
}

// Close releases the parser's arena. It is idempotent.
func (p *HeaderParser) Close() error {
	return p.store.Free()
}

// Parse consumes data and returns how many bytes belong to the header
// block. When the block completes in the middle of data, the remainder is
// body and is left untouched.
func (p *HeaderParser) Parse(data []byte) (int, error) {
	for i, c := range data {
		switch p.state {
		case stateVersion:
			switch c {
			case ' ':
				if p.store.Len() == p.mark {
					return i, p.statusError("empty protocol version")
				}
				if err := p.cut(&p.version); err != nil {
					return i, err
				}
				p.state = stateCode
			case '\r', '\n':
				return i, p.statusError("missing status code")
			default:
				if err := p.put(c); err != nil {
					return i, err
				}
			}

		case stateCode:
			if c >= '0' && c <= '9' && p.digits < 3 {
				p.code = p.code*10 + int(c-'0')
				p.digits++
				continue
			}
			if p.digits != 3 {
				return i, p.statusError("status code must have three digits")
			}
			switch c {
			case ' ':
				p.mark = p.store.Len()
				p.state = stateReason
			case '\r':
				p.reason, _ = p.store.View(p.mark, p.mark)
				p.state = stateLineLF
			case '\n':
				p.reason, _ = p.store.View(p.mark, p.mark)
				p.state = stateLineStart
			default:
				return i, p.statusError("unexpected byte after status code")
			}

		case stateReason:
			switch c {
			case '\r', '\n':
				if err := p.cut(&p.reason); err != nil {
					return i, err
				}
				p.state = stateLineLF
				if c == '\n' {
					p.state = stateLineStart
				}
			default:
				if err := p.put(c); err != nil {
					return i, err
				}
			}

		case stateLineLF:
			if c != '\n' {
				return i, p.headerError("expected LF after CR")
			}
			p.state = stateLineStart

		case stateLineStart:
			switch c {
			case '\r':
				p.state = stateEndLF
			case '\n':
				p.state = stateDone
				return i + 1, nil
			case ' ', '\t':
				return i, p.headerError("folded header lines are not supported")
			case ':':
				return i, p.headerError("empty header name")
			default:
				p.mark = p.store.Len()
				if err := p.put(c); err != nil {
					return i, err
				}
				p.state = stateName
			}

		case stateName:
			switch c {
			case ':':
				if err := p.cut(&p.name); err != nil {
					return i, err
				}
				p.state = stateValueStart
			case '\r', '\n':
				return i, p.headerError(fmt.Sprintf("header without colon [name=%s]", p.pending()))
			default:
				if err := p.put(c); err != nil {
					return i, err
				}
			}

		case stateValueStart:
			if c == ' ' || c == '\t' {
				continue
			}
			p.mark = p.store.Len()
			p.state = stateValue
			if err := p.value(c); err != nil {
				return i, err
			}

		case stateValue:
			if err := p.value(c); err != nil {
				return i, err
			}

		case stateEndLF:
			if c != '\n' {
				return i, p.headerError("expected LF after final CR")
			}
			p.state = stateDone
			return i + 1, nil

		case stateDone:
			return i, nil
		}
	}
	return len(data), nil
}

func (p *HeaderParser) value(c byte) error {
	switch c {
	case '\r', '\n':
		hi := p.store.Len()
		for hi > p.mark {
			if b := p.store.Span(hi-1, hi)[0]; b != ' ' && b != '\t' {
				break
			}
			hi--
		}
		v, err := p.store.View(p.mark, hi)
		if err != nil {
			return err
		}
		p.pool.Add(p.name)
		p.pool.Add(v)
		p.state = stateLineLF
		if c == '\n' {
			p.state = stateLineStart
		}
		return nil
	default:
		return p.put(c)
	}
}

func (p *HeaderParser) put(c byte) error {
	if err := p.store.PutByte(c); err != nil {
		if httperrors.IsState(err, httperrors.StateErrorClosed) {
			return err
		}
		return httperrors.NewProtocolError(httperrors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("response headers exceed %d bytes", p.store.Cap()))
	}
	return nil
}

func (p *HeaderParser) cut(dst *arena.View) error {
	v, err := p.store.View(p.mark, p.store.Len())
	if err != nil {
		return err
	}
	*dst = v
	p.mark = p.store.Len()
	return nil
}

func (p *HeaderParser) pending() string {
	return string(p.store.Span(p.mark, p.store.Len()))
}

func (p *HeaderParser) statusError(msg string) error {
	return httperrors.NewProtocolError(httperrors.ProtocolErrorInvalidStatusLine, msg)
}

func (p *HeaderParser) headerError(msg string) error {
	return httperrors.NewProtocolError(httperrors.ProtocolErrorInvalidHeader, msg)
}

// Version returns the protocol version of the status line, e.g. HTTP/1.1.
func (p *HeaderParser) Version() arena.View {
	return p.version
}

// StatusCode returns the three-digit status code, or 0 before it was parsed.
func (p *HeaderParser) StatusCode() int {
	if p.digits != 3 {
		return 0
	}
	return p.code
}

// Reason returns the reason phrase of the status line.
func (p *HeaderParser) Reason() arena.View {
	return p.reason
}

// HeaderCount returns the number of headers parsed so far.
func (p *HeaderParser) HeaderCount() int {
	return (p.pool.Len() - p.first) / 2
}

// HeaderAt returns the i-th header in arrival order.
func (p *HeaderParser) HeaderAt(i int) (name, value arena.View) {
	j := p.first + 2*i
	return p.pool.Get(j), p.pool.Get(j + 1)
}

// Header looks up the first header called name, ignoring ASCII case.
func (p *HeaderParser) Header(name string) (arena.View, bool) {
	for i, n := 0, p.HeaderCount(); i < n; i++ {
		k, v := p.HeaderAt(i)
		if k.EqualFold(name) {
			return v, true
		}
	}
	return arena.View{}, false
}

// ContentLength returns the Content-Length header, or -1 when it is absent
// or malformed.
func (p *HeaderParser) ContentLength() int64 {
	v, ok := p.Header("Content-Length")
	if !ok {
		return -1
	}
	b, err := v.Bytes()
	if err != nil {
		return -1
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(b)), 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
