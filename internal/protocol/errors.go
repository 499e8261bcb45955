package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorKind represents the category of a protocol failure
type ErrorKind int

const (
	// KindChecksumMismatch indicates an inbound frame failed checksum validation
	KindChecksumMismatch ErrorKind = iota + 1
	// KindFrameTooShort indicates a frame was truncated or its declared length was wrong
	KindFrameTooShort
	// KindMalformedPattern indicates a custom pattern body could not be decoded
	KindMalformedPattern
	// KindTooManyColors indicates a custom pattern exceeded the 16 slot limit
	KindTooManyColors
	// KindMalformedTimerTable indicates a timer table of the wrong width
	KindMalformedTimerTable
	// KindInvalidRange indicates a caller supplied an out-of-domain value
	KindInvalidRange
	// KindUnsupportedChannel indicates a channel the device does not have
	KindUnsupportedChannel
	// KindUnreachable indicates the device failed after the retry budget was spent
	KindUnreachable
	// KindUnknownModel indicates a model id with no registry entry
	KindUnknownModel
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindFrameTooShort:
		return "frame too short"
	case KindMalformedPattern:
		return "malformed pattern"
	case KindTooManyColors:
		return "too many colors"
	case KindMalformedTimerTable:
		return "malformed timer table"
	case KindInvalidRange:
		return "invalid range"
	case KindUnsupportedChannel:
		return "unsupported channel"
	case KindUnreachable:
		return "unreachable"
	case KindUnknownModel:
		return "unknown model"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the typed error returned by every fluxled package.
// Match it with errors.Is against the Err* sentinels below.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrChecksumMismatch    = &Error{Kind: KindChecksumMismatch}
	ErrFrameTooShort       = &Error{Kind: KindFrameTooShort}
	ErrMalformedPattern    = &Error{Kind: KindMalformedPattern}
	ErrTooManyColors       = &Error{Kind: KindTooManyColors}
	ErrMalformedTimerTable = &Error{Kind: KindMalformedTimerTable}
	ErrInvalidRange        = &Error{Kind: KindInvalidRange}
	ErrUnsupportedChannel  = &Error{Kind: KindUnsupportedChannel}
	ErrUnreachable         = &Error{Kind: KindUnreachable}
	ErrUnknownModel        = &Error{Kind: KindUnknownModel}
)

// Errorf builds an *Error of the given kind with a formatted message
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an underlying cause
func Wrap(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsRetryable reports whether a whole request may be retried after err.
// Corrupt or truncated frames and transient socket failures are retryable.
// Caller input errors and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch KindOf(err) {
	case KindChecksumMismatch, KindFrameTooShort:
		return true
	case 0:
	default:
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
