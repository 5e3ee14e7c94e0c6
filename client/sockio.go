package client

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/transport"
)

func (c *Client) setupWait() error {
	if err := c.waiter.Setup(c.transport.Fd()); err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorQueueFailure, "could not register socket", err)
	}
	return nil
}

// ioWait blocks until the socket is ready for op.
func (c *Client) ioWait(timeout time.Duration, op transport.Op) error {
	status, err := c.waiter.Wait(op, timeout)
	switch status {
	case transport.WaitReady:
		return nil
	case transport.WaitTimeout:
		return httperrors.NewTransportError(
			httperrors.TransportErrorTimeout,
			fmt.Sprintf("[op=%s, timeout=%s]", op, timeout),
			err,
		)
	default:
		return httperrors.NewTransportError(
			httperrors.TransportErrorQueueFailure,
			fmt.Sprintf("[op=%s]", op),
			err,
		)
	}
}

// recvOrDie waits for data and reads it into the arena from lo up to its
// capacity. It returns the number of bytes received, never zero.
func (c *Client) recvOrDie(lo int, timeout time.Duration) (int, error) {
	buf := c.buf.Span(lo, c.buf.Cap())
	for {
		if err := c.ioWait(timeout, transport.OpRead); err != nil {
			return 0, err
		}
		n, err := c.transport.Read(buf)
		if spurious(err) {
			continue
		}
		if err != nil || n < 1 {
			return 0, c.peerDisconnect("recv", err)
		}
		return n, nil
	}
}

// sendOrDie waits for the socket to accept data and writes [lo, hi) of the
// arena once. It returns the number of bytes written, never zero.
func (c *Client) sendOrDie(lo, hi int, timeout time.Duration) (int, error) {
	buf := c.buf.Span(lo, hi)
	for {
		if err := c.ioWait(timeout, transport.OpWrite); err != nil {
			return 0, err
		}
		n, err := c.transport.Write(buf)
		if spurious(err) {
			continue
		}
		if err != nil || n < 1 {
			return 0, c.peerDisconnect("send", err)
		}
		return n, nil
	}
}

// flush writes the whole request, continuing after partial writes.
func (c *Client) flush(timeout time.Duration) (int, error) {
	lo, hi, writes := 0, c.buf.Len(), 0
	for lo < hi {
		n, err := c.sendOrDie(lo, hi, timeout)
		if err != nil {
			return writes, err
		}
		lo += n
		writes++
	}
	return writes, nil
}

func (c *Client) peerDisconnect(op string, err error) error {
	return httperrors.NewTransportError(
		httperrors.TransportErrorPeerDisconnect,
		fmt.Sprintf("[op=%s, fd=%d]", op, c.transport.Fd()),
		err,
	)
}

// spurious reports a readiness report that did not hold.
func spurious(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR)
}
