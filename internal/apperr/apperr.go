// Package apperr defines the typed error model shared by the core and the
// HTTP edge. Every error carries a stable machine-readable code and the HTTP
// status it maps to; handlers translate them verbatim into the wire envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL"
)

// Error is an application error with a stable code and HTTP mapping.
type Error struct {
	Code       string
	HTTPStatus int
	Message    string
	Err        error // wrapped cause, not exposed on the wire
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthorized means the actor is absent.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, HTTPStatus: http.StatusUnauthorized, Message: msg}
}

// Forbidden means the actor is present but out of scope.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, HTTPStatus: http.StatusForbidden, Message: msg}
}

// BadRequest means malformed input: invalid id, enum or range.
func BadRequest(msg string) *Error {
	return &Error{Code: CodeBadRequest, HTTPStatus: http.StatusBadRequest, Message: msg}
}

// NotFound means the target id does not exist. Distinct from an empty list.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, HTTPStatus: http.StatusNotFound, Message: msg}
}

// Conflict means a unique-pair violation that the endpoint treats as hard failure.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, HTTPStatus: http.StatusConflict, Message: msg}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, HTTPStatus: http.StatusInternalServerError, Message: "internal error", Err: err}
}

// From returns err as an *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsCode reports whether err is an application error with the given code.
func IsCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
