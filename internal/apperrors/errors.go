// Package apperrors provides coded domain errors shared by the recommendation engine
// and its HTTP surface.
//
// Services return typed errors; callers match them with errors.Is against the
// sentinel values, or inspect the Code with errors.As:
//
//	if errors.Is(err, apperrors.ErrNotFound) {
//	    c.JSON(http.StatusNotFound, ...)
//	}
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeParse            Code = "PARSE"
	CodeState            Code = "STATE"
	CodeModelUnavailable Code = "MODEL_UNAVAILABLE"
	CodeValidation       Code = "VALIDATION"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeParse:
		return http.StatusUnprocessableEntity
	case CodeState:
		return http.StatusConflict
	case CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with details attached.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrParse            = &Error{Code: CodeParse, Message: "parse error"}
	ErrState            = &Error{Code: CodeState, Message: "invalid state"}
	ErrModelUnavailable = &Error{Code: CodeModelUnavailable, Message: "model unavailable"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation failed"}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Parse(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeParse, Message: fmt.Sprintf(format, args...), cause: cause}
}

func State(format string, args ...any) *Error {
	return &Error{Code: CodeState, Message: fmt.Sprintf(format, args...)}
}

func ModelUnavailable(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeModelUnavailable, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Internal(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the Code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
