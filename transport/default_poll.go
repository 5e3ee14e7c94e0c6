//go:build unix && !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package transport

// NewDefaultWaiter returns the preferred readiness backend for the platform.
func NewDefaultWaiter() (Waiter, error) {
	return NewPollWaiter(), nil
}
