package transport

import (
	"time"

	"golang.org/x/sys/unix"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// EpollWaiter waits with a private epoll instance holding a single socket.
// The interest mask is rewritten on every Wait.
type EpollWaiter struct {
	epfd   int
	fd     int
	events [1]unix.EpollEvent
}

func NewEpollWaiter() (*EpollWaiter, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, httperrors.NewTransportError(httperrors.TransportErrorQueueFailure, "epoll_create1", err)
	}
	return &EpollWaiter{epfd: epfd, fd: -1}, nil
}

// Setup registers fd. A previously registered descriptor is dropped first;
// it may already be gone if the socket was closed in between.
func (w *EpollWaiter) Setup(fd int) error {
	if w.epfd < 0 {
		return httperrors.NewStateError(httperrors.StateErrorClosed, "epoll waiter closed")
	}
	if w.fd >= 0 {
		_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, w.fd, nil)
		w.fd = -1
	}
	ev := unix.EpollEvent{Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorQueueFailure, "epoll_ctl add", err)
	}
	w.fd = fd
	return nil
}

func (w *EpollWaiter) Wait(op Op, timeout time.Duration) (WaitStatus, error) {
	if w.fd < 0 {
		return WaitError, unix.EBADF
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(w.fd)}
	if op == OpWrite {
		ev.Events = unix.EPOLLOUT
	}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_MOD, w.fd, &ev); err != nil {
		return WaitError, err
	}

	d := newDeadline(timeout)
	for {
		n, err := unix.EpollWait(w.epfd, w.events[:], millis(d.remaining()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return WaitError, err
		}
		if n == 0 {
			return WaitTimeout, nil
		}
		return WaitReady, nil
	}
}

func (w *EpollWaiter) Close() error {
	if w.epfd < 0 {
		return nil
	}
	epfd := w.epfd
	w.epfd = -1
	w.fd = -1
	return unix.Close(epfd)
}
