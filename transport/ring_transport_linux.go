package transport

import (
	"github.com/godzie44/go-uring/uring"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// RingTransport is the io_uring transport built on godzie44/go-uring.
// Each Read and Write queues one operation and waits for its completion
// event before returning.
type RingTransport struct {
	*socketTransport
	ring *uring.Ring
}

// NewRingTransport creates a new TCP transport with io_uring (godzie44/go-uring)
func NewRingTransport() (*RingTransport, error) {
	// Create io_uring instance with queue depth of 32
	ring, err := uring.New(32)
	if err != nil {
		return nil, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &RingTransport{
		socketTransport: newSocketTransport(resolveTCP, true),
		ring:            ring,
	}, nil
}

// Write queues one write operation
func (t *RingTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	if err := t.ring.QueueSQE(uring.Write(uintptr(t.fd), buf, 0), 0, 0); err != nil {
		return 0, errQueue(err)
	}
	return t.complete()
}

// Read queues one read operation
func (t *RingTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	if err := t.ring.QueueSQE(uring.Read(uintptr(t.fd), buf, 0), 0, 0); err != nil {
		return 0, errQueue(err)
	}
	return t.complete()
}

func (t *RingTransport) complete() (int, error) {
	if _, err := t.ring.Submit(); err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to wait for completion",
			err,
		)
	}

	res := cqe.Res
	err = cqe.Error()
	t.ring.SeenCQE(cqe)

	if err != nil {
		return 0, err
	}
	return int(res), nil
}

func errQueue(err error) error {
	return httperrors.NewTransportError(
		httperrors.TransportErrorIoUringSubmit,
		"failed to queue request",
		err,
	)
}

// Destroy cleans up resources including the io_uring instance
func (t *RingTransport) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}
