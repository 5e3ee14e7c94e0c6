// Package arena provides the fixed-size byte buffer a client reuses for every
// request/response cycle, and bounds-checked views into it.
//
// Memory is mapped outside the Go heap and released explicitly with Free.
// Every view remembers the arena generation it was cut from; Reset and
// Invalidate move the generation on, after which old views refuse to read.
package arena

import (
	"fmt"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// Arena is a fixed-capacity byte buffer with a write cursor.
type Arena struct {
	buf []byte
	ptr int
	gen uint64
}

// New maps an arena of size bytes.
func New(size int) (*Arena, error) {
	if size <= 0 {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("arena size must be positive [size=%d]", size))
	}
	buf, err := allocate(size)
	if err != nil {
		return nil, err
	}
	return &Arena{buf: buf, gen: 1}, nil
}

// Cap returns the fixed capacity.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Len returns the write cursor.
func (a *Arena) Len() int {
	return a.ptr
}

// Generation returns the current view generation.
func (a *Arena) Generation() uint64 {
	return a.gen
}

// Freed reports whether Free has been called.
func (a *Arena) Freed() bool {
	return a.buf == nil
}

// Reset rewinds the write cursor and retires every outstanding view.
func (a *Arena) Reset() {
	a.ptr = 0
	a.gen++
}

// Invalidate retires every outstanding view without touching the cursor.
func (a *Arena) Invalidate() {
	a.gen++
}

// Put appends s at the write cursor.
func (a *Arena) Put(s string) error {
	if err := a.ensure(len(s)); err != nil {
		return err
	}
	a.ptr += copy(a.buf[a.ptr:], s)
	return nil
}

// PutByte appends a single byte at the write cursor.
func (a *Arena) PutByte(b byte) error {
	if err := a.ensure(1); err != nil {
		return err
	}
	a.buf[a.ptr] = b
	a.ptr++
	return nil
}

// Written returns the bytes between the base and the write cursor.
func (a *Arena) Written() []byte {
	return a.buf[:a.ptr]
}

// Span returns the raw bytes [lo, hi). It is meant for socket I/O and
// parsing inside the owning client; callers outside should use View.
func (a *Arena) Span(lo, hi int) []byte {
	if lo < 0 || hi > len(a.buf) || lo > hi {
		panic(fmt.Sprintf("arena: span [%d, %d) out of range [0, %d)", lo, hi, len(a.buf)))
	}
	return a.buf[lo:hi]
}

// Shift moves [lo, hi) to the base and returns the new high mark.
func (a *Arena) Shift(lo, hi int) int {
	n := copy(a.buf, a.Span(lo, hi))
	return n
}

// View cuts a view [lo, hi) stamped with the current generation.
func (a *Arena) View(lo, hi int) (View, error) {
	if a.buf == nil {
		return View{}, httperrors.NewStateError(httperrors.StateErrorClosed, "arena freed")
	}
	if lo < 0 || hi > len(a.buf) || lo > hi {
		return View{}, httperrors.NewInvalidArgumentError(
			fmt.Sprintf("view [%d, %d) out of range [0, %d)", lo, hi, len(a.buf)))
	}
	return View{a: a, lo: lo, hi: hi, gen: a.gen}, nil
}

// Free unmaps the memory. Further use of the arena or its views fails.
func (a *Arena) Free() error {
	if a.buf == nil {
		return nil
	}
	buf := a.buf
	a.buf = nil
	a.ptr = 0
	a.gen++
	return release(buf)
}

func (a *Arena) ensure(n int) error {
	if a.buf == nil {
		return httperrors.NewStateError(httperrors.StateErrorClosed, "arena freed")
	}
	if a.ptr+n > len(a.buf) {
		return httperrors.NewProtocolError(httperrors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("buffer overflow [size=%d, need=%d]", len(a.buf), a.ptr+n))
	}
	return nil
}
