package protocol

import (
	"bytes"
	"fmt"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// maxChunkSizeDigits keeps chunk sizes inside a signed 64-bit integer.
// Leading zeros do not count.
const maxChunkSizeDigits = 15

var crlf = []byte("\r\n")

// IndexCRLF returns the index of the first CRLF in b, or -1.
func IndexCRLF(b []byte) int {
	return bytes.Index(b, crlf)
}

// ParseChunkSize parses a chunk-size line without its CRLF. Chunk
// extensions after ';' and surrounding blanks are ignored.
//
// Format: hex-size [; ext-name [= ext-value]]
func ParseChunkSize(line []byte) (int64, error) {
	if semi := bytes.IndexByte(line, ';'); semi >= 0 {
		line = line[:semi]
	}
	line = bytes.Trim(line, " \t")

	if len(line) == 0 {
		return 0, chunkError("empty chunk size")
	}
	for len(line) > 1 && line[0] == '0' {
		line = line[1:]
	}
	if len(line) > maxChunkSizeDigits {
		return 0, chunkError(fmt.Sprintf("chunk size too long [digits=%d]", len(line)))
	}

	var n int64
	for _, c := range line {
		n <<= 4
		switch {
		case c >= '0' && c <= '9':
			n |= int64(c - '0')
		case c >= 'a' && c <= 'f':
			n |= int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= int64(c-'A') + 10
		default:
			return 0, chunkError(fmt.Sprintf("invalid hex digit %q", c))
		}
	}
	return n, nil
}

func chunkError(msg string) error {
	return httperrors.NewProtocolError(httperrors.ProtocolErrorInvalidChunkedEncoding, msg)
}
