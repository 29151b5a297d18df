package shared

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to the transport boundary.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeRBACDenied   = "UNAUTHORIZED-RBAC"
	CodeRoleDenied   = "UNAUTHORIZED_ROLE"
	CodeNotFound     = "NOT_FOUND"
	CodeBadUserInput = "BAD_USER_INPUT"
	CodeDuplicate    = "DUPLICATE"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// Coded is implemented by errors that carry a stable code.
type Coded interface {
	ErrorCode() string
}

// Error is a domain error with a stable code and a human readable message.
type Error struct {
	Code    string
	Message string
	Err     error
}

// NewError builds a coded error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds a coded error wrapping an underlying cause.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// ErrorCode returns the stable code.
func (e *Error) ErrorCode() string { return e.Code }

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the stable code from an error chain, defaulting to
// CodeInternal for untyped errors.
func CodeOf(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeInternal
}

// UserSafeMessage returns the message suitable for API responses. Untyped
// errors collapse to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	var coded Coded
	if errors.As(err, &coded) {
		return err.Error()
	}
	return "internal server error"
}
