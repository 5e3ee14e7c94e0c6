package transport

import "time"

// Op is the readiness a Waiter waits for.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (op Op) String() string {
	if op == OpWrite {
		return "write"
	}
	return "read"
}

// WaitStatus is the three-way outcome of a readiness wait.
type WaitStatus int

const (
	WaitReady WaitStatus = iota
	WaitTimeout
	WaitError
)

// Waiter blocks until a socket is ready for an operation or a timeout
// elapses. One Waiter serves one socket at a time; Setup switches it to a
// new descriptor.
type Waiter interface {
	// Setup binds the waiter to fd. It is called before every request flush.
	Setup(fd int) error

	// Wait blocks for op. A negative timeout waits forever.
	// The error is non-nil only together with WaitError.
	Wait(op Op, timeout time.Duration) (WaitStatus, error)

	// Close releases backend resources.
	Close() error
}

// deadline tracks the time left of a wait that may be interrupted.
type deadline struct {
	infinite bool
	at       time.Time
}

func newDeadline(timeout time.Duration) deadline {
	if timeout < 0 {
		return deadline{infinite: true}
	}
	return deadline{at: time.Now().Add(timeout)}
}

func (d deadline) remaining() time.Duration {
	if d.infinite {
		return -1
	}
	left := time.Until(d.at)
	if left < 0 {
		return 0
	}
	return left
}

// millis rounds a timeout up to whole milliseconds, -1 meaning forever.
func millis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := timeout / time.Millisecond
	if timeout%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
