package errors

import "fmt"

// ErrorCode represents a Kapture error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrInvalidField   ErrorCode = "INVALID_FIELD"   // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// KaptureError represents a structured error with code, status, and details.
type KaptureError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *KaptureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *KaptureError {
	return &KaptureError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidField creates a 400 error for an unknown suggestion field.
func NewInvalidField(field string) *KaptureError {
	return &KaptureError{
		Code:    ErrInvalidField,
		Status:  400,
		Message: fmt.Sprintf("invalid field: %s (expected tag, source, or context)", field),
		Details: map[string]any{"field": field},
	}
}

// NewNotFound creates a 404 error for when a capture cannot be found.
func NewNotFound(identifier string) *KaptureError {
	return &KaptureError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("capture not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *KaptureError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &KaptureError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a KaptureError with the given code.
func Is(err error, code ErrorCode) bool {
	if kErr, ok := err.(*KaptureError); ok {
		return kErr.Code == code
	}
	return false
}
