package objectdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with message",
			err: &Error{
				Op:  "UpdateDocument",
				Err: ErrInvalidArgument,
				Msg: "document id is required",
			},
			expected: "UpdateDocument: document id is required: invalid argument",
		},
		{
			name: "error without message",
			err: &Error{
				Op:  "Query",
				Err: ErrNotImplemented,
			},
			expected: "Query: not implemented",
		},
		{
			name: "missing field",
			err: &Error{
				Op:  "InsertDocument",
				Err: &MissingFieldError{Field: "id"},
			},
			expected: `InsertDocument: response missing field "id"`,
		},
		{
			name: "status error with couch description",
			err: &Error{
				Op:  "WriteAttachment",
				Err: &StatusError{StatusCode: 409, Type: "conflict", Reason: "Document update conflict."},
			},
			expected: "WriteAttachment: store returned status 409: conflict (Document update conflict.)",
		},
		{
			name: "status error without body",
			err: &Error{
				Op:  "FetchDocument",
				Err: &StatusError{StatusCode: 500},
			},
			expected: "FetchDocument: store returned status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	transportFailure := fmt.Errorf("%w: %w", ErrTransport, context.DeadlineExceeded)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "invalid argument",
			err:    &Error{Op: "UpdateDocument", Err: ErrInvalidArgument},
			target: ErrInvalidArgument,
			want:   true,
		},
		{
			name:   "missing field is a protocol error",
			err:    &Error{Op: "InsertDocument", Err: &MissingFieldError{Field: "rev"}},
			target: ErrProtocol,
			want:   true,
		},
		{
			name:   "invalid field is a protocol error",
			err:    &Error{Op: "UpdateDocument", Err: &InvalidFieldError{Field: "rev", Reason: "empty"}},
			target: ErrProtocol,
			want:   true,
		},
		{
			name:   "conflict status",
			err:    &Error{Op: "WriteAttachment", Err: &StatusError{StatusCode: 409}},
			target: ErrConflict,
			want:   true,
		},
		{
			name:   "conflict status is a transport failure",
			err:    &Error{Op: "WriteAttachment", Err: &StatusError{StatusCode: 409}},
			target: ErrTransport,
			want:   true,
		},
		{
			name:   "not found status",
			err:    &Error{Op: "FetchDocument", Err: &StatusError{StatusCode: 404}},
			target: ErrNotFound,
			want:   true,
		},
		{
			name:   "server error is not a conflict",
			err:    &Error{Op: "UpdateDocument", Err: &StatusError{StatusCode: 500}},
			target: ErrConflict,
			want:   false,
		},
		{
			name:   "engine failure keeps original cause",
			err:    &Error{Op: "FetchDocument", Err: transportFailure},
			target: context.DeadlineExceeded,
			want:   true,
		},
		{
			name:   "engine failure is a transport failure",
			err:    &Error{Op: "FetchDocument", Err: transportFailure},
			target: ErrTransport,
			want:   true,
		},
		{
			name:   "not implemented does not match protocol",
			err:    &Error{Op: "Query", Err: ErrNotImplemented},
			target: ErrProtocol,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingFields(t *testing.T) {
	var both *multierror.Error
	both = multierror.Append(both, &MissingFieldError{Field: "id"}, &MissingFieldError{Field: "rev"})

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{name: "nil", err: nil, want: nil},
		{name: "unrelated", err: ErrNotImplemented, want: nil},
		{name: "single", err: &Error{Op: "UpdateDocument", Err: &MissingFieldError{Field: "rev"}}, want: []string{"rev"}},
		{name: "aggregated", err: &Error{Op: "InsertDocument", Err: both.ErrorOrNil()}, want: []string{"id", "rev"}},
		{name: "mixed", err: multierror.Append(nil, &MissingFieldError{Field: "id"}, &InvalidFieldError{Field: "rev", Reason: "empty"}), want: []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingFields(tt.err)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("MissingFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingFieldError_As(t *testing.T) {
	var merr *multierror.Error
	merr = multierror.Append(merr, &MissingFieldError{Field: "rev"})
	err := &Error{Op: "InsertDocument", Err: merr.ErrorOrNil()}

	var mf *MissingFieldError
	if !errors.As(err, &mf) {
		t.Fatal("errors.As() did not find *MissingFieldError")
	}
	if mf.Field != "rev" {
		t.Errorf("Field = %q, want %q", mf.Field, "rev")
	}
}
