package ports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"syscall"
)

// DaemonErrorKind is the class of a failure of a call to revaultd.
type DaemonErrorKind int

const (
	// DaemonErrorUnexpected is any failure that fits no other class.
	DaemonErrorUnexpected DaemonErrorKind = iota
	// DaemonErrorNoAnswer means the daemon was reached but never replied.
	DaemonErrorNoAnswer
	// DaemonErrorTransport is an IO failure talking to the daemon socket.
	DaemonErrorTransport
	// DaemonErrorRpc is an error reply from the daemon.
	DaemonErrorRpc
)

// TransportKind refines a transport failure. The zero value means the kind
// is not known.
type TransportKind int

const (
	TransportKindUnknown TransportKind = iota
	TransportKindConnectionRefused
	TransportKindNotFound
	TransportKindPermissionDenied
	TransportKindTimedOut
	TransportKindBrokenPipe
	TransportKindConnectionReset
	TransportKindUnexpectedEOF
	TransportKindOther
)

var transportKindNames = map[TransportKind]string{
	TransportKindConnectionRefused: "ConnectionRefused",
	TransportKindNotFound:          "NotFound",
	TransportKindPermissionDenied:  "PermissionDenied",
	TransportKindTimedOut:          "TimedOut",
	TransportKindBrokenPipe:        "BrokenPipe",
	TransportKindConnectionReset:   "ConnectionReset",
	TransportKindUnexpectedEOF:     "UnexpectedEof",
	TransportKindOther:             "Other",
}

func (k TransportKind) String() string {
	return transportKindNames[k]
}

// DaemonError is the only error type a RevaultD implementation returns.
type DaemonError struct {
	Kind          DaemonErrorKind
	TransportKind TransportKind
	Code          int
	Message       string
}

func NewUnexpectedError(msg string) *DaemonError {
	return &DaemonError{Kind: DaemonErrorUnexpected, Message: msg}
}

func NewNoAnswerError() *DaemonError {
	return &DaemonError{Kind: DaemonErrorNoAnswer}
}

func NewTransportError(kind TransportKind, msg string) *DaemonError {
	return &DaemonError{
		Kind: DaemonErrorTransport, TransportKind: kind, Message: msg,
	}
}

func NewRpcError(code int, msg string) *DaemonError {
	return &DaemonError{Kind: DaemonErrorRpc, Code: code, Message: msg}
}

func (e *DaemonError) Error() string {
	switch e.Kind {
	case DaemonErrorNoAnswer:
		return "daemon did not answer"
	case DaemonErrorTransport:
		if e.TransportKind == TransportKindConnectionRefused {
			return "failed to connect to daemon"
		}
		if e.TransportKind != TransportKindUnknown {
			return fmt.Sprintf("%s [%s]", e.Message, e.TransportKind)
		}
		return e.Message
	case DaemonErrorRpc:
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	default:
		return e.Message
	}
}

// Is matches two daemon errors of the same class, transport kind and code.
func (e *DaemonError) Is(target error) bool {
	t, ok := target.(*DaemonError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind &&
		e.TransportKind == t.TransportKind &&
		e.Code == t.Code
}

// ToDaemonError classifies any error raised while talking to the daemon.
// Errors that already are daemon errors are returned as is.
func ToDaemonError(err error) *DaemonError {
	if err == nil {
		return nil
	}

	var daemonErr *DaemonError
	if errors.As(err, &daemonErr) {
		return daemonErr
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, io.EOF) {
		return NewNoAnswerError()
	}

	msg := err.Error()
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return NewTransportError(TransportKindConnectionRefused, msg)
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOENT):
		return NewTransportError(TransportKindNotFound, msg)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM):
		return NewTransportError(TransportKindPermissionDenied, msg)
	case errors.Is(err, syscall.EPIPE):
		return NewTransportError(TransportKindBrokenPipe, msg)
	case errors.Is(err, syscall.ECONNRESET):
		return NewTransportError(TransportKindConnectionReset, msg)
	case errors.Is(err, syscall.ETIMEDOUT):
		return NewTransportError(TransportKindTimedOut, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return NewTransportError(TransportKindUnexpectedEOF, msg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewTransportError(TransportKindOther, msg)
	}

	return NewUnexpectedError(msg)
}
