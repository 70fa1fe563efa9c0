package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a persistence failure that maps onto an HTTP status.
// Entity names the row kind involved ("prompt", "username") when known.
type Error struct {
	Code    int
	Entity  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is compares by status code, so every not-found error matches ErrNotFound
// whatever its entity or message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// Sentinel errors.
var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	ErrInvalidInput  = &Error{Code: http.StatusBadRequest, Message: "invalid input"}
)

// NotFound reports a missing entity, e.g. NotFound("prompt").
func NotFound(entity string) *Error {
	return &Error{Code: http.StatusNotFound, Entity: entity, Message: entity + " not found"}
}

// Taken reports a unique value already in use, e.g. Taken("username").
func Taken(entity string) *Error {
	return &Error{Code: http.StatusConflict, Entity: entity, Message: entity + " already taken"}
}

// Invalid reports input the store refuses to persist.
func Invalid(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// EntityOf returns the entity named by the first *Error in err's chain.
func EntityOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity
	}
	return ""
}
