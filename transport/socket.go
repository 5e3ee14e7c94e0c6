//go:build unix

package transport

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	sockaddrnet "github.com/libp2p/go-sockaddr/net"
	"golang.org/x/sys/unix"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

var errNotConnected = unix.EBADF

type resolver func(host string, port int) (net.Addr, error)

// socketTransport implements Transport with raw non-blocking sockets.
type socketTransport struct {
	resolve resolver
	noDelay bool
	fd      int
}

func newSocketTransport(resolve resolver, noDelay bool) *socketTransport {
	return &socketTransport{
		resolve: resolve,
		noDelay: noDelay,
		fd:      -1,
	}
}

// Connect resolves the address, creates a non-blocking socket and starts
// connecting it. It returns ErrConnectPending when the handshake is still
// in flight.
func (t *socketTransport) Connect(host string, port int) error {
	if t.fd >= 0 {
		return httperrors.NewTransportError(
			httperrors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	addr, err := t.resolve(host, port)
	if err != nil {
		return httperrors.NewTransportError(
			httperrors.TransportErrorDnsFailure,
			fmt.Sprintf("[host=%s]", host),
			err,
		)
	}

	sa := sockaddrnet.NetAddrToSockaddr(addr)
	if sa == nil {
		return httperrors.NewTransportError(
			httperrors.TransportErrorDnsFailure,
			fmt.Sprintf("unsupported address [addr=%s]", addr),
			nil,
		)
	}

	fd, err := unix.Socket(sockaddrnet.NetAddrAF(addr), unix.SOCK_STREAM, 0)
	if err != nil {
		return httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"",
			err,
		)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"failed to set non-blocking mode",
			err,
		)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if t.noDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			unix.Close(fd)
			return httperrors.NewTransportError(
				httperrors.TransportErrorSocketCreateFailure,
				"failed to set TCP_NODELAY",
				err,
			)
		}
	}

	t.fd = fd

	err = unix.Connect(fd, sa)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EINTR):
		return ErrConnectPending
	default:
		t.Close()
		return httperrors.NewTransportError(
			httperrors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("[host=%s, port=%d]", host, port),
			err,
		)
	}
}

// ConnectError reads SO_ERROR after a pending connect.
func (t *socketTransport) ConnectError() error {
	if t.fd < 0 {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, "not connected", nil)
	}
	errno, err := unix.GetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, "", err)
	}
	if errno != 0 {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, "", syscall.Errno(errno))
	}
	return nil
}

func (t *socketTransport) Fd() int {
	return t.fd
}

// Write performs one non-blocking write.
func (t *socketTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	return ignoringEINTR(func() (int, error) { return unix.Write(t.fd, buf) })
}

// Read performs one non-blocking read. A zero count with a nil error means
// the peer closed the connection.
func (t *socketTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	return ignoringEINTR(func() (int, error) { return unix.Read(t.fd, buf) })
}

// Close closes the socket
func (t *socketTransport) Close() error {
	if t.fd < 0 {
		return nil // Idempotent close
	}

	fd := t.fd
	t.fd = -1

	if err := unix.Close(fd); err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketCloseFailure, "", err)
	}
	return nil
}

func (t *socketTransport) Destroy() {
	t.Close()
}

func ignoringEINTR(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if err != unix.EINTR {
			return n, err
		}
	}
}
