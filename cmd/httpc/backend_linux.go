package main

import (
	"fmt"

	"github.com/nczempin/httpc-direct/transport"
)

const (
	transportNames = "tcp, unix, uring, ring"
	waiterNames    = "default, poll, epoll"
)

func platformTransport(name string) (transport.Transport, error) {
	switch name {
	case "uring":
		return transport.NewUringTransport()
	case "ring":
		return transport.NewRingTransport()
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}

func platformWaiter(name string) (transport.Waiter, error) {
	if name == "epoll" {
		return transport.NewEpollWaiter()
	}
	return nil, fmt.Errorf("unknown waiter %q", name)
}
