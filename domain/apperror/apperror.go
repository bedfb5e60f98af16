package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an application error for propagation and HTTP mapping.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

// AppError is a structured application error carrying a stable code, a
// user-facing message and optional diagnostic details.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code Code, message string, details string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Details: details, Cause: cause}
}

func InvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message, "", nil)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, "", nil)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, "", nil)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, "", nil)
}

func Unavailable(message string, cause error) *AppError {
	return New(CodeUnavailable, message, "", cause)
}

func Internal(message string, cause error) *AppError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return New(CodeInternal, message, details, cause)
}

// CodeOf extracts the application error code, defaulting to Internal for
// unclassified errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
