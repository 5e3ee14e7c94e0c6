//go:build unix

package transport

import (
	"net"
	"strconv"
)

// TcpTransport implements the Transport interface using TCP sockets
type TcpTransport struct {
	*socketTransport
}

// NewTcpTransport creates a new TcpTransport instance
func NewTcpTransport() *TcpTransport {
	return &TcpTransport{socketTransport: newSocketTransport(resolveTCP, true)}
}

func resolveTCP(host string, port int) (net.Addr, error) {
	return net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
