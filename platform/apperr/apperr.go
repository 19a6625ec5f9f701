// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer
// automatically maps them to appropriate HTTP status codes.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates invalid input data.
	KindValidation
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindAuth indicates a credential refresh or exchange failure upstream.
	KindAuth
	// KindUpstream indicates a non-2xx response from an upstream service.
	KindUpstream
	// KindUnprocessable indicates a per-record failure reported inside an
	// otherwise successful upstream envelope.
	KindUnprocessable
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
	Status  int         // Upstream status to mirror (optional, overrides Kind)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error.
// A non-zero Status mirrors the upstream response verbatim; otherwise the
// Kind decides.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusBadGateway
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithStatus returns the error with an upstream status to mirror.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// Convenience constructors for common error types.

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Auth creates an upstream credential failure error.
func Auth(message string) *Error {
	return New(KindAuth, message)
}

// Upstream creates an upstream error mirroring the given status.
func Upstream(status int, message string) *Error {
	return New(KindUpstream, message).WithStatus(status)
}

// Unprocessable creates a per-record failure error.
func Unprocessable(message string) *Error {
	return New(KindUnprocessable, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
