package objectdb

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidArgument means a precondition failed before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProtocol means the store answered but the response lacked what the
	// operation requires.
	ErrProtocol = errors.New("protocol error")

	// ErrTransport means the round trip did not complete successfully: the
	// engine failed or the store rejected the request.
	ErrTransport = errors.New("transport error")

	// ErrNotFound means the document or attachment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the revision passed in is not the current one.
	ErrConflict = errors.New("revision conflict")

	// ErrNotImplemented is returned by operations the adapter does not
	// support.
	ErrNotImplemented = errors.New("not implemented")
)

// Error describes a failed operation.
type Error struct {
	// Op is the operation, e.g. "InsertDocument".
	Op string

	// Err is the cause.
	Err error

	// Msg adds optional context.
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a required response field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("response missing field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrProtocol
}

// InvalidFieldError reports a required response field that was present but
// unusable (empty, or of the wrong type).
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("response field %q is %s", e.Field, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrProtocol
}

// StatusError is a non-success HTTP status returned by the store, with the
// store's own error description when it sent one.
type StatusError struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("store returned status %d", e.StatusCode)
	if e.Type != "" {
		msg += ": " + e.Type
		if e.Reason != "" {
			msg += " (" + e.Reason + ")"
		}
	}
	return msg
}

// Is matches ErrTransport for every status, plus ErrNotFound and ErrConflict
// for 404 and 409.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// MissingFields lists every field reported missing in err.
func MissingFields(err error) []string {
	var fields []string
	walk(err, func(e error) {
		if mf, ok := e.(*MissingFieldError); ok {
			fields = append(fields, mf.Field)
		}
	})
	return fields
}

// walk visits err and every error reachable through Unwrap, including both
// forms of multi-error unwrapping.
func walk(err error, fn func(error)) {
	for err != nil {
		fn(err)
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				walk(e, fn)
			}
			return
		case interface{ WrappedErrors() []error }:
			for _, e := range u.WrappedErrors() {
				walk(e, fn)
			}
			return
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return
		}
	}
}
