package errors

import "fmt"

// Error codes used across the reminder subsystem
const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidationRejected = "VALIDATION_REJECTED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates an error for operations referencing a missing record
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Err: err}
}

// NewValidationRejectedError creates an error for rejected schedule input
func NewValidationRejectedError(message string, err error) *AppError {
	return &AppError{Code: CodeValidationRejected, Message: message, Err: err}
}

// NewPermissionDeniedError creates an error for missing notification permission
func NewPermissionDeniedError(message string, err error) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message, Err: err}
}

// NewStorageUnavailableError creates an error for store open/command failures
func NewStorageUnavailableError(message string, err error) *AppError {
	return &AppError{Code: CodeStorageUnavailable, Message: message, Err: err}
}

// NewInternalError creates a generic internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

func hasCode(err error, code string) bool {
	for err != nil {
		if app, ok := err.(*AppError); ok {
			return app.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsNotFound reports whether err carries the NOT_FOUND code
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidationRejected reports whether err carries the VALIDATION_REJECTED code
func IsValidationRejected(err error) bool {
	return hasCode(err, CodeValidationRejected)
}

// IsStorageUnavailable reports whether err carries the STORAGE_UNAVAILABLE code
func IsStorageUnavailable(err error) bool {
	return hasCode(err, CodeStorageUnavailable)
}
