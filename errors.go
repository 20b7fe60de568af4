package clamd

import (
	"errors"
	"fmt"
)

// Error codes for machine-readable error classification.
const (
	CodeConnection = "connection_error"
	CodeTimeout    = "timeout"
	CodeValidation = "validation_error"
	CodeDaemon     = "daemon_error"
	CodeProtocol   = "protocol_error"
	CodeFilesystem = "filesystem_error"
)

// Diagnostic messages surfaced verbatim to callers.
const (
	msgNoResponse     = "No response received from ClamAV. Consider increasing MaxThreads in clamd.conf"
	msgTimeout        = "Socket connection timeout"
	msgInvalid        = "Invalid response"
	msgNotRegularFile = "Not a regular file or directory"
)

// ErrNoResponse matches, via errors.Is, the error returned when clamd closes
// the connection without sending a newline-terminated reply. The usual cause
// is the daemon running out of worker threads.
var ErrNoResponse = &Error{Code: CodeProtocol, Message: msgNoResponse}

// Error is the base error type for all SDK errors.
type Error struct {
	// Code is a machine-readable error code.
	Code string
	// Message is a human-readable error description.
	Message string
	// Label is the scan label (filename or "stream") the error belongs to, if any.
	Label string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code and message.
// Label and Cause are ignored so sentinel values such as ErrNoResponse match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewConnectionError creates an error indicating a connection failure.
func NewConnectionError(msg string, cause error) *Error {
	return &Error{
		Code:    CodeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// NewTimeoutError creates an error indicating a timeout.
func NewTimeoutError(msg string, cause error) *Error {
	return &Error{
		Code:    CodeTimeout,
		Message: msg,
		Cause:   cause,
	}
}

// NewValidationError creates an error indicating invalid input.
func NewValidationError(msg string, cause error) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: msg,
		Cause:   cause,
	}
}

// NewDaemonError creates an error carrying a message reported by clamd itself
// (the "<message> ERROR" reply shape).
func NewDaemonError(msg string) *Error {
	return &Error{
		Code:    CodeDaemon,
		Message: msg,
	}
}

// NewProtocolError creates an error for replies that do not follow the clamd protocol.
func NewProtocolError(msg string, cause error) *Error {
	return &Error{
		Code:    CodeProtocol,
		Message: msg,
		Cause:   cause,
	}
}

// NewFilesystemError creates an error for stat, open or directory listing failures.
func NewFilesystemError(msg string, cause error) *Error {
	return &Error{
		Code:    CodeFilesystem,
		Message: msg,
		Cause:   cause,
	}
}

// withLabel returns err with its Label set when err is an *Error without one.
func withLabel(err error, label string) error {
	var e *Error
	if errors.As(err, &e) && e.Label == "" {
		labeled := *e
		labeled.Label = label
		return &labeled
	}
	return err
}

func hasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConnectionError reports whether err is or wraps a connection error.
func IsConnectionError(err error) bool {
	return hasCode(err, CodeConnection)
}

// IsTimeoutError reports whether err is or wraps a timeout error.
func IsTimeoutError(err error) bool {
	return hasCode(err, CodeTimeout)
}

// IsValidationError reports whether err is or wraps a validation error.
func IsValidationError(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsDaemonError reports whether err is or wraps an error reported by clamd.
func IsDaemonError(err error) bool {
	return hasCode(err, CodeDaemon)
}

// IsProtocolError reports whether err is or wraps a protocol error.
func IsProtocolError(err error) bool {
	return hasCode(err, CodeProtocol)
}

// IsFilesystemError reports whether err is or wraps a filesystem error.
func IsFilesystemError(err error) bool {
	return hasCode(err, CodeFilesystem)
}
