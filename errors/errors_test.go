package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestHttpError_TransportCarriesErrno(t *testing.T) {
	err := NewTransportError(TransportErrorPeerDisconnect, "", syscall.ECONNRESET)

	if err.Errno != syscall.ECONNRESET {
		t.Errorf("Expected errno %d, got %d", syscall.ECONNRESET, err.Errno)
	}
	if !strings.Contains(err.Error(), "peer disconnect") {
		t.Errorf("Expected message to mention peer disconnect, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("errno=%d", int(syscall.ECONNRESET))) {
		t.Errorf("Expected message to carry errno, got %q", err.Error())
	}
	if !stderrors.Is(err, syscall.ECONNRESET) {
		t.Error("Expected errors.Is to reach the underlying errno")
	}
}

func TestHttpError_Predicates(t *testing.T) {
	timeout := fmt.Errorf("recv: %w", NewTransportError(TransportErrorTimeout, "", nil))
	incomplete := NewProtocolError(ProtocolErrorHeadersIncomplete, "")
	stale := NewStateError(StateErrorStaleView, "")

	if !IsTransport(timeout, TransportErrorTimeout) {
		t.Error("Expected wrapped timeout to be recognised")
	}
	if IsTransport(timeout, TransportErrorQueueFailure) {
		t.Error("Timeout must not match queue failure")
	}
	if !IsProtocol(incomplete, ProtocolErrorHeadersIncomplete) {
		t.Error("Expected headers-incomplete to be recognised")
	}
	if IsProtocol(stale, ProtocolErrorHeadersIncomplete) {
		t.Error("State error must not match a protocol kind")
	}
	if !IsState(stale, StateErrorStaleView) {
		t.Error("Expected stale view to be recognised")
	}
	if IsState(nil, StateErrorStaleView) {
		t.Error("nil must not match")
	}
}

func TestErrnoOf(t *testing.T) {
	if got := ErrnoOf(syscall.EPIPE); got != syscall.EPIPE {
		t.Errorf("Expected EPIPE from bare errno, got %d", got)
	}
	wrapped := NewTransportError(TransportErrorSocketConnectFailure, "", fmt.Errorf("connect: %w", syscall.ECONNREFUSED))
	if got := ErrnoOf(wrapped); got != syscall.ECONNREFUSED {
		t.Errorf("Expected ECONNREFUSED, got %d", got)
	}
	if got := ErrnoOf(NewProtocolError(ProtocolErrorInvalidHeader, "x")); got != 0 {
		t.Errorf("Expected 0 for protocol error, got %d", got)
	}
}

func TestHttpError_Nil(t *testing.T) {
	var err *HttpError
	if err.Error() != "no error" {
		t.Errorf("Expected 'no error', got %q", err.Error())
	}
}
