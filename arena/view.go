package arena

import (
	"bytes"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// View is a zero-copy window [lo, hi) into an Arena.
type View struct {
	a   *Arena
	lo  int
	hi  int
	gen uint64
}

func (v View) Lo() int { return v.lo }

func (v View) Hi() int { return v.hi }

func (v View) Len() int { return v.hi - v.lo }

// IsZero reports whether v was never cut from an arena.
func (v View) IsZero() bool {
	return v.a == nil
}

// Valid reports whether the arena is still on the generation v was cut from.
func (v View) Valid() bool {
	return v.a != nil && v.a.buf != nil && v.a.gen == v.gen
}

// Bytes returns the viewed bytes without copying. The slice aliases the
// arena and must not be retained past the next reset.
func (v View) Bytes() ([]byte, error) {
	if !v.Valid() {
		return nil, httperrors.NewStateError(httperrors.StateErrorStaleView, "view used after its buffer was reused")
	}
	return v.a.buf[v.lo:v.hi], nil
}

// String copies the viewed bytes into a string.
func (v View) String() string {
	b, err := v.Bytes()
	if err != nil {
		return ""
	}
	return string(b)
}

// EqualFold reports whether the viewed bytes equal s under ASCII case folding.
func (v View) EqualFold(s string) bool {
	b, err := v.Bytes()
	if err != nil {
		return false
	}
	return len(b) == len(s) && bytes.EqualFold(b, []byte(s))
}
