package transport

import "errors"

// ErrConnectPending is returned by Connect when the non-blocking connect has
// been started but not finished. The caller waits for the socket to become
// writable and then asks ConnectError for the outcome.
var ErrConnectPending = errors.New("connect in progress")

// Transport defines the socket operations the client drives.
// Implementations include TCP, Unix domain sockets and io_uring variants.
//
// Read and Write perform exactly one non-blocking system call (or one
// submitted ring operation) and return the raw OS error, so that the caller
// can classify failures itself.
type Transport interface {
	// Connect creates a non-blocking socket and starts connecting it.
	// For Unix sockets, the host parameter is the socket path and port is ignored.
	Connect(host string, port int) error

	// ConnectError reports the result of a pending connect.
	ConnectError() error

	// Fd returns the socket descriptor, or -1 when not connected.
	Fd() int

	// Write sends data to the connected peer.
	Write(buf []byte) (int, error)

	// Read receives data from the connected peer.
	Read(buf []byte) (int, error)

	// Close closes the socket. It is idempotent.
	Close() error

	// Destroy closes the socket and releases backend resources.
	Destroy()
}
