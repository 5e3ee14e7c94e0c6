package transport

import (
	"syscall"

	"github.com/iceber/iouring-go"

	httperrors "github.com/nczempin/httpc-direct/errors"
)

// UringTransport is a TCP transport whose reads and writes are submitted
// through io_uring. Connect and Close go through the regular socket path.
type UringTransport struct {
	*socketTransport
	iour    *iouring.IOURing
	results chan iouring.Result
}

// NewUringTransport creates a new TCP transport with io_uring
func NewUringTransport() (*UringTransport, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(32)
	if err != nil {
		return nil, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{
		socketTransport: newSocketTransport(resolveTCP, true),
		iour:            iour,
		results:         make(chan iouring.Result, 1),
	}, nil
}

// Write submits one send and waits for its completion
func (t *UringTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	return t.submit(iouring.Send(t.fd, buf, 0))
}

// Read submits one recv and waits for its completion
func (t *UringTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errNotConnected
	}
	return t.submit(iouring.Recv(t.fd, buf, 0))
}

func (t *UringTransport) submit(req iouring.PrepRequest) (int, error) {
	request, err := t.iour.SubmitRequest(req, t.results)
	if err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}
	<-t.results

	// Send and Recv install no result resolver; the raw completion
	// result is the byte count or a negated errno.
	res, err := request.GetRes()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, syscall.Errno(-res)
	}
	return res, nil
}

// Destroy cleans up resources including the io_uring instance
func (t *UringTransport) Destroy() {
	t.Close()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}
