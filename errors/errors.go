package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorState
	ErrorInvalidArgument
	ErrorMemory
)

// TransportError represents socket and readiness-wait failures
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorDnsFailure
	TransportErrorSocketConnectFailure
	TransportErrorPeerDisconnect
	TransportErrorTimeout
	TransportErrorQueueFailure
	TransportErrorSocketCloseFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorSocketCreateFailure:
		return "could not allocate a file descriptor"
	case TransportErrorDnsFailure:
		return "could not resolve host"
	case TransportErrorSocketConnectFailure:
		return "could not connect to host"
	case TransportErrorPeerDisconnect:
		return "peer disconnect"
	case TransportErrorTimeout:
		return "timed out"
	case TransportErrorQueueFailure:
		return "queue error"
	case TransportErrorSocketCloseFailure:
		return "socket close failed"
	case TransportErrorIoUringInit:
		return "io_uring init failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failed"
	default:
		return fmt.Sprintf("transport error %d", int(e))
	}
}

// ProtocolError represents malformed or oversized HTTP data
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorHeadersIncomplete
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorInvalidChunkedEncoding
	ProtocolErrorMessageTooLarge
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorHeadersIncomplete:
		return "http response headers not yet received"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorInvalidHeader:
		return "invalid header"
	case ProtocolErrorInvalidChunkedEncoding:
		return "invalid chunked encoding"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	default:
		return fmt.Sprintf("protocol error %d", int(e))
	}
}

// StateError represents API misuse: the caller broke a sequencing contract
type StateError int

const (
	StateErrorNone StateError = iota
	StateErrorInvalidTransition
	StateErrorStaleView
	StateErrorClosed
)

func (e StateError) String() string {
	switch e {
	case StateErrorInvalidTransition:
		return "invalid request state"
	case StateErrorStaleView:
		return "stale buffer view"
	case StateErrorClosed:
		return "client closed"
	default:
		return fmt.Sprintf("state error %d", int(e))
	}
}

// HttpError is the main error type for the HTTP client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	StateErr      StateError
	Message       string
	Errno         syscall.Errno
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = e.TransportErr.String()
	case ErrorProtocol:
		typeStr = e.ProtocolErr.String()
	case ErrorState:
		typeStr = e.StateErr.String()
	case ErrorInvalidArgument:
		typeStr = "invalid argument"
	case ErrorMemory:
		typeStr = "memory error"
	default:
		typeStr = "unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.Errno != 0 {
		typeStr = fmt.Sprintf("%s [errno=%d]", typeStr, int(e.Errno))
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error. The OS error code is
// extracted from underlying when it carries one.
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		Errno:         errnoOf(underlying),
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewStateError creates a new state error
func NewStateError(err StateError, message string) *HttpError {
	return &HttpError{
		Type:     ErrorState,
		StateErr: err,
		Message:  message,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// NewMemoryError creates a new memory error
func NewMemoryError(message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorMemory,
		Message:       message,
		Errno:         errnoOf(underlying),
		UnderlyingErr: underlying,
	}
}

// IsTransport reports whether err is a transport error of the given kind.
func IsTransport(err error, kind TransportError) bool {
	var he *HttpError
	return stderrors.As(err, &he) && he.Type == ErrorTransport && he.TransportErr == kind
}

// IsProtocol reports whether err is a protocol error of the given kind.
func IsProtocol(err error, kind ProtocolError) bool {
	var he *HttpError
	return stderrors.As(err, &he) && he.Type == ErrorProtocol && he.ProtocolErr == kind
}

// IsState reports whether err is a state error of the given kind.
func IsState(err error, kind StateError) bool {
	var he *HttpError
	return stderrors.As(err, &he) && he.Type == ErrorState && he.StateErr == kind
}

// ErrnoOf returns the OS error code carried by err, or 0.
func ErrnoOf(err error) syscall.Errno {
	var he *HttpError
	if stderrors.As(err, &he) && he.Errno != 0 {
		return he.Errno
	}
	return errnoOf(err)
}

func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if err != nil && stderrors.As(err, &errno) {
		return errno
	}
	return 0
}
