//go:build unix

package transport

import (
	"time"

	"golang.org/x/sys/unix"
)

// PollWaiter waits with poll(2). It keeps no kernel state and works on every
// Unix platform.
type PollWaiter struct {
	fds [1]unix.PollFd
}

func NewPollWaiter() *PollWaiter {
	w := &PollWaiter{}
	w.fds[0].Fd = -1
	return w
}

func (w *PollWaiter) Setup(fd int) error {
	w.fds[0].Fd = int32(fd)
	return nil
}

func (w *PollWaiter) Wait(op Op, timeout time.Duration) (WaitStatus, error) {
	if w.fds[0].Fd < 0 {
		return WaitError, unix.EBADF
	}
	w.fds[0].Events = unix.POLLIN
	if op == OpWrite {
		w.fds[0].Events = unix.POLLOUT
	}
	w.fds[0].Revents = 0

	d := newDeadline(timeout)
	for {
		n, err := unix.Poll(w.fds[:], millis(d.remaining()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return WaitError, err
		}
		if n == 0 {
			return WaitTimeout, nil
		}
		if w.fds[0].Revents&unix.POLLNVAL != 0 {
			return WaitError, unix.EBADF
		}
		// POLLERR and POLLHUP surface through the following read or write.
		return WaitReady, nil
	}
}

func (w *PollWaiter) Close() error {
	w.fds[0].Fd = -1
	return nil
}
