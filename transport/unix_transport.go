//go:build unix

package transport

import "net"

// UnixTransport implements the Transport interface using Unix domain sockets.
// The host passed to Connect is the socket path; the port is ignored.
type UnixTransport struct {
	*socketTransport
}

// NewUnixTransport creates a new UnixTransport instance
func NewUnixTransport() *UnixTransport {
	return &UnixTransport{socketTransport: newSocketTransport(resolveUnix, false)}
}

func resolveUnix(path string, _ int) (net.Addr, error) {
	return net.ResolveUnixAddr("unix", path)
}
