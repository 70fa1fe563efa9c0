// Package errors defines the coded errors services return to the API layer.
//
// A service returns one of the constructors below; handlers either pass it
// through (huma renders it with its own status) or branch on it:
//
//	if errors.Is(err, errors.ErrQuotaExceeded) {
//	    // show the sign-in nudge
//	}
//
// Two errors are equal under Is when their codes match, so a sentinel
// matches every error built with the same code whatever its message.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard library helpers, so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Code is the machine-readable error code sent to clients.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeRateLimited        Code = "RATE_LIMITED"

	CodeNeedsAuthentication  Code = "NEEDS_AUTHENTICATION"
	CodeQuotaExceeded        Code = "QUOTA_EXCEEDED"
	CodeRemoteUnavailable    Code = "REMOTE_UNAVAILABLE"
	CodeClipboardUnavailable Code = "CLIPBOARD_UNAVAILABLE"
	CodeMalformedInput       Code = "MALFORMED_INPUT"
)

var statusOf = map[Code]int{
	CodeNotFound:             http.StatusNotFound,
	CodeAlreadyExists:        http.StatusConflict,
	CodeConflict:             http.StatusConflict,
	CodeClipboardUnavailable: http.StatusConflict,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeInvalidCredentials:   http.StatusUnauthorized,
	CodeTokenExpired:         http.StatusUnauthorized,
	CodeNeedsAuthentication:  http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeValidation:           http.StatusBadRequest,
	CodeMalformedInput:       http.StatusBadRequest,
	CodeQuotaExceeded:        http.StatusTooManyRequests,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeRemoteUnavailable:    http.StatusServiceUnavailable,
}

// HTTPStatus maps the code to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusOf[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error carries a code, a client-facing message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPStatus is shorthand for e.Code.HTTPStatus().
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping err. The cause is logged but never
// sent to clients.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrNotFound           = newError(CodeNotFound, "not found")
	ErrAlreadyExists      = newError(CodeAlreadyExists, "already exists")
	ErrUnauthorized       = newError(CodeUnauthorized, "unauthorized")
	ErrForbidden          = newError(CodeForbidden, "forbidden")
	ErrValidation         = newError(CodeValidation, "validation error")
	ErrInvalidCredentials = newError(CodeInvalidCredentials, "invalid credentials")
	ErrTokenExpired       = newError(CodeTokenExpired, "token expired")
	ErrQuotaExceeded      = newError(CodeQuotaExceeded, "daily copy limit reached")
	ErrMalformedInput     = newError(CodeMalformedInput, "malformed input")
)

func NotFound(msg string) *Error { return newError(CodeNotFound, msg) }

func NotFoundf(format string, args ...any) *Error {
	return newError(CodeNotFound, fmt.Sprintf(format, args...))
}

func AlreadyExists(msg string) *Error       { return newError(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *Error        { return newError(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error           { return newError(CodeForbidden, msg) }
func Internal(msg string) *Error            { return newError(CodeInternal, msg) }
func InvalidCredentials(msg string) *Error  { return newError(CodeInvalidCredentials, msg) }
func TokenExpired(msg string) *Error        { return newError(CodeTokenExpired, msg) }
func RateLimited(msg string) *Error         { return newError(CodeRateLimited, msg) }
func NeedsAuthentication(msg string) *Error { return newError(CodeNeedsAuthentication, msg) }
func QuotaExceeded(msg string) *Error       { return newError(CodeQuotaExceeded, msg) }

// ClipboardUnavailable reports that the copied text could not reach the
// visitor's clipboard.
func ClipboardUnavailable(msg string) *Error { return newError(CodeClipboardUnavailable, msg) }

// ValidationWithDetails is a validation failure with per-field messages,
// usually a map[string]string keyed by JSON field name.
func ValidationWithDetails(msg string, details any) *Error {
	return newError(CodeValidation, msg).WithDetails(details)
}

func MalformedInput(msg string) *Error { return newError(CodeMalformedInput, msg) }

func MalformedInputf(format string, args ...any) *Error {
	return newError(CodeMalformedInput, fmt.Sprintf(format, args...))
}
