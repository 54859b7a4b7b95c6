package service

import (
	"errors"
	"fmt"
)

// Business error codes surfaced to the transport layer.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodePermission = "PERMISSION_DENIED"
	CodeNotFound   = "NOT_FOUND"
)

// BusinessError is a rule violation detected before or during a mutation.
// It aborts the enclosing transaction without partial writes.
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error { return e.Err }

func NewValidationError(message string) *BusinessError {
	return &BusinessError{Code: CodeValidation, Message: message}
}

func NewPermissionError(message string) *BusinessError {
	return &BusinessError{Code: CodePermission, Message: message}
}

func NewNotFoundError(resource string, id uint, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %d not found", resource, id),
		Err:     err,
	}
}

// ErrorCode extracts the business code from err, or "" for unexpected
// persistence errors.
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
