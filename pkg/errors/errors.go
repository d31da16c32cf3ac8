package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes for the status/notification core.
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConfigurationUnavailable
	ErrInvalidSubscription
	ErrEndpointGone
	ErrTransientSend
	ErrStorage
)

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// ConfigurationUnavailable marks a failed settings read. Status evaluation
// fails open on this error instead of surfacing it to clients.
func ConfigurationUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrConfigurationUnavailable,
		Message: "configuration unavailable",
		Err:     err,
	}
}

// InvalidSubscription marks malformed subscribe/unsubscribe/verify input.
func InvalidSubscription(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalidSubscription,
		Message: message,
		Err:     err,
	}
}

// EndpointGone marks a terminal delivery failure: the push service reported
// the endpoint no longer exists and the subscription should be pruned.
func EndpointGone(err error) *AppError {
	return &AppError{
		Code:    ErrEndpointGone,
		Message: "subscription endpoint gone",
		Err:     err,
	}
}

// TransientSend marks any other delivery failure. The subscription is kept.
func TransientSend(err error) *AppError {
	return &AppError{
		Code:    ErrTransientSend,
		Message: "push delivery failed",
		Err:     err,
	}
}

// Storage wraps registry/log read or write failures.
func Storage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: "storage error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
