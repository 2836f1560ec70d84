package errors

import (
	"errors"
	"fmt"
)

// Kind classifies client-side failures into the three categories the
// console distinguishes: local validation, authentication, and everything
// the data API rejects or the transport loses.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindAuth       Kind = "AUTH_ERROR"
	KindRequest    Kind = "REQUEST_ERROR"
)

// Error represents a typed client error carrying the HTTP status the server
// answered with (zero for purely local failures).
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New(KindAuth, 401, "invalid login or password")
	ErrUnauthenticated    = New(KindAuth, 401, "not authenticated")
	ErrValidation         = New(KindValidation, 0, "validation failed")
	ErrRequestFailed      = New(KindRequest, 0, "request failed")
	ErrConnection         = New(KindRequest, 0, "could not reach the server")
	ErrBusy               = New(KindRequest, 0, "another operation is already in flight")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindRequest, 0, err.Error())
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsAuth reports whether the error collapses to the unauthenticated outcome.
func IsAuth(err error) bool {
	e := FromError(err)
	return e != nil && e.Kind == KindAuth
}

// IsBusy reports whether the error blames an operation already in flight.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
