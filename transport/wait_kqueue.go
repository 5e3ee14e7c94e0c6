//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// KqueueWaiter waits with a private kqueue. Each Wait arms a one-shot filter
// for the requested operation.
type KqueueWaiter struct {
	kq     int
	fd     int
	events [1]unix.Kevent_t
}

func NewKqueueWaiter() (*KqueueWaiter, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, httperrors.NewTransportError(httperrors.TransportErrorQueueFailure, "kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &KqueueWaiter{kq: kq, fd: -1}, nil
}

func (w *KqueueWaiter) Setup(fd int) error {
	if w.kq < 0 {
		return httperrors.NewStateError(httperrors.StateErrorClosed, "kqueue waiter closed")
	}
	w.fd = fd
	return nil
}

func (w *KqueueWaiter) Wait(op Op, timeout time.Duration) (WaitStatus, error) {
	if w.fd < 0 {
		return WaitError, unix.EBADF
	}
	filter := unix.EVFILT_READ
	if op == OpWrite {
		filter = unix.EVFILT_WRITE
	}
	var changes [1]unix.Kevent_t
	unix.SetKevent(&changes[0], w.fd, filter, unix.EV_ADD|unix.EV_ONESHOT)

	d := newDeadline(timeout)
	for {
		var ts *unix.Timespec
		if left := d.remaining(); left >= 0 {
			t := unix.NsecToTimespec(int64(left))
			ts = &t
		}
		n, err := unix.Kevent(w.kq, changes[:], w.events[:], ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return WaitError, err
		}
		if n == 0 {
			unix.SetKevent(&changes[0], w.fd, filter, unix.EV_DELETE)
			_, _ = unix.Kevent(w.kq, changes[:], nil, nil)
			return WaitTimeout, nil
		}
		if w.events[0].Flags&unix.EV_ERROR != 0 {
			return WaitError, syscall.Errno(w.events[0].Data)
		}
		return WaitReady, nil
	}
}

func (w *KqueueWaiter) Close() error {
	if w.kq < 0 {
		return nil
	}
	kq := w.kq
	w.kq = -1
	w.fd = -1
	return unix.Close(kq)
}
