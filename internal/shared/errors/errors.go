package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a map, space or hallway does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates invalid input data
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnreachable indicates no route exists between two valid spaces
	ErrorTypeUnreachable ErrorType = "unreachable"
	// ErrorTypeInvalidRange indicates period indices out of bounds or non-increasing
	ErrorTypeInvalidRange ErrorType = "invalid_range"
	// ErrorTypeNoSchedule indicates congestion was requested before a schedule was loaded
	ErrorTypeNoSchedule ErrorType = "no_schedule"
	// ErrorTypeUnauthorized indicates authentication failure
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden indicates insufficient permissions
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeRateLimited indicates the client exceeded its request budget
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	// ErrorTypeExternal indicates an external service error
	ErrorTypeExternal ErrorType = "external"
)

// AppError is the base error type for application errors
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
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

// NotFoundf creates a not found error with formatting
func NotFoundf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a validation error
func Validation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// Validationf creates a validation error with formatting
func Validationf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Err:     err,
	}
}

// Unreachablef creates an unreachable route error with formatting
func Unreachablef(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeUnreachable,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidRangef creates an invalid period range error with formatting
func InvalidRangef(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeInvalidRange,
		Message: fmt.Sprintf(format, args...),
	}
}

// NoSchedule creates a missing schedule error
func NoSchedule(message string) error {
	return &AppError{
		Type:    ErrorTypeNoSchedule,
		Message: message,
	}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// Forbidden creates a forbidden error
func Forbidden(message string) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
	}
}

// RateLimited creates a rate limit error
func RateLimited(message string) error {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Message: message,
	}
}

// MethodNotAllowed creates a method not allowed error
func MethodNotAllowed(method string) error {
	return &AppError{
		Type:    ErrorTypeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries the given error type
func Is(err error, errorType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errorType
}
