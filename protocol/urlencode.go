package protocol

// Escaped is the punctuation the query encoder rewrites as %XX. Anything not
// listed here, including '~', control bytes and non-ASCII bytes, is written
// as is.
const Escaped = " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}"

const upperHex = "0123456789ABCDEF"

// escapes holds the %XX form of every escaped byte, "" for the rest.
var escapes [256]string

func init() {
	for i := 0; i < len(Escaped); i++ {
		c := Escaped[i]
		escapes[c] = string([]byte{'%', upperHex[c>>4], upperHex[c&0xf]})
	}
}

// ByteSink receives encoded output. *arena.Arena implements it.
type ByteSink interface {
	Put(s string) error
	PutByte(b byte) error
}

// ShouldEscape reports whether the encoder rewrites c.
func ShouldEscape(c byte) bool {
	return escapes[c] != ""
}

// URLEncode writes s to w, escaping the bytes ShouldEscape selects. Runs of
// plain bytes are written in one call.
func URLEncode(w ByteSink, s string) error {
	lo := 0
	for i := 0; i < len(s); i++ {
		esc := escapes[s[i]]
		if esc == "" {
			continue
		}
		if lo < i {
			if err := w.Put(s[lo:i]); err != nil {
				return err
			}
		}
		if err := w.Put(esc); err != nil {
			return err
		}
		lo = i + 1
	}
	if lo < len(s) {
		return w.Put(s[lo:])
	}
	return nil
}
