package app

import (
	"errors"
	"fmt"
)

// AppErrorType represents the type of application error.
type AppErrorType int

const (
	// PreconditionFailed indicates the host is not ready for the operation.
	PreconditionFailed AppErrorType = iota
	// CatalogFetchFailed indicates the remote version catalog could not be read.
	CatalogFetchFailed
	// OverridesLoadFailed indicates the override file could not be parsed.
	OverridesLoadFailed
	// StatusCheckFailed indicates a version could not be classified.
	StatusCheckFailed
	// RenderFailed indicates config generation failed.
	RenderFailed
	// UnstageFailed indicates removing a version failed.
	UnstageFailed
	// ValidationFailed indicates invalid input.
	ValidationFailed
)

// String returns the error type name.
func (t AppErrorType) String() string {
	switch t {
	case PreconditionFailed:
		return "PreconditionFailed"
	case CatalogFetchFailed:
		return "CatalogFetchFailed"
	case OverridesLoadFailed:
		return "OverridesLoadFailed"
	case StatusCheckFailed:
		return "StatusCheckFailed"
	case RenderFailed:
		return "RenderFailed"
	case UnstageFailed:
		return "UnstageFailed"
	case ValidationFailed:
		return "ValidationFailed"
	default:
		return "Unknown"
	}
}

// AppError represents an application-layer error.
type AppError struct {
	// Type is the error type.
	Type AppErrorType
	// Message is the error message.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError.
func NewAppError(errType AppErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewPreconditionError creates a precondition error.
func NewPreconditionError(message string, cause error) *AppError {
	return NewAppError(PreconditionFailed, message, cause)
}

// NewCatalogFetchError creates a catalog fetch error.
func NewCatalogFetchError(message string, cause error) *AppError {
	return NewAppError(CatalogFetchFailed, message, cause)
}

// NewValidationError creates a validation error.
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ValidationFailed, message, cause)
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType AppErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}
