//go:build unix && !linux

package main

import (
	"fmt"

	"github.com/nczempin/httpc-direct/transport"
)

const (
	transportNames = "tcp, unix"
	waiterNames    = "default, poll"
)

func platformTransport(name string) (transport.Transport, error) {
	return nil, fmt.Errorf("unknown transport %q", name)
}

func platformWaiter(name string) (transport.Waiter, error) {
	return nil, fmt.Errorf("unknown waiter %q", name)
}
