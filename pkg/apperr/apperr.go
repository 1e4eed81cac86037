package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a business error so handlers can map it to an HTTP status
// without inspecting message strings.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeCalculation       Code = "CALCULATION_ERROR"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeAlreadyProcessed  Code = "ALREADY_PROCESSED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is the coded error returned by every service boundary.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error (usually a store error).
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(CodeValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(CodeNotFound, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(CodeUnauthorized, format, args...)
}

func Calculation(format string, args ...interface{}) *Error {
	return New(CodeCalculation, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return New(CodeInvalidTransition, format, args...)
}

func AlreadyProcessed(format string, args ...interface{}) *Error {
	return New(CodeAlreadyProcessed, format, args...)
}

func Internal(err error, format string, args ...interface{}) *Error {
	return Wrap(CodeInternal, err, format, args...)
}

// CodeOf extracts the code of err, defaulting to INTERNAL_ERROR for
// anything that is not an *Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a code to the status the API layer responds with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeCalculation:
		return http.StatusUnprocessableEntity
	case CodeInvalidTransition, CodeAlreadyProcessed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
