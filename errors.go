package sqlsrv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnect indicates that opening a session with the server failed.
	ErrConnect = errors.New("failed to connect to database")

	// ErrExecute indicates that a statement was sent but the server rejected it.
	ErrExecute = errors.New("statement execution failed")

	// ErrFetch indicates that reading a row from a result set failed.
	ErrFetch = errors.New("failed to fetch row")

	// ErrPrecondition marks an expected reason for an operation not to proceed,
	// such as inserting into a table that does not exist.
	ErrPrecondition = errors.New("precondition not met")

	// ErrConnectionLost signals that the underlying session is no longer usable.
	ErrConnectionLost = errors.New("connection lost")

	// ErrNotConnected is returned when closing a session that holds no handle.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidSettings wraps validation failures of Settings.
	ErrInvalidSettings = errors.New("settings are invalid")

	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")
)

// DriverError is a single error record reported by the database driver.
type DriverError struct {
	// Code is the native server error number, zero when unknown.
	Code int32
	// State is the driver or server state associated with the error.
	State string
	// Message is the human readable error text.
	Message string
}

// Error implements the error interface.
func (e DriverError) Error() string {
	if e.Code == 0 && e.State == "" {
		return e.Message
	}
	return fmt.Sprintf("[%d/%s] %s", e.Code, e.State, e.Message)
}

// ErrorSet is the ordered sequence of error records returned by a failed
// driver operation. It is never empty when returned by this module.
type ErrorSet []DriverError

// Error implements the error interface.
func (s ErrorSet) Error() string {
	msgs := make([]string, len(s))
	for i, e := range s {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Errors extracts the ErrorSet carried by err. Errors that did not originate
// from a driver are returned as a single record holding the error text, so a
// non-nil error always yields at least one record.
func Errors(err error) ErrorSet {
	if err == nil {
		return nil
	}

	var set ErrorSet
	if errors.As(err, &set) && len(set) > 0 {
		return set
	}

	return ErrorSet{{Message: err.Error()}}
}
