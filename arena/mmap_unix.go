//go:build unix

package arena

import (
	"golang.org/x/sys/unix"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

func allocate(size int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, httperrors.NewMemoryError("could not map arena", err)
	}
	return buf, nil
}

func release(buf []byte) error {
	return unix.Munmap(buf)
}
