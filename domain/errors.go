package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Message is safe to show to API clients.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "User not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "Task not found")
	ErrUserExists         = NewError(ErrCodeConflict, "Username or email already exists")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid email or password")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "User not authenticated")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "Invalid request body")

	ErrPasswordRequired   = NewError(ErrCodeInvalid, "Password is required")
	ErrPasswordTooShort   = NewError(ErrCodeInvalid, "Password must be at least 8 characters long")
	ErrIdentityRequired   = NewError(ErrCodeInvalid, "Username and email are required")
	ErrCredentialsMissing = NewError(ErrCodeInvalid, "Email and password required")

	ErrTitleRequired   = NewError(ErrCodeInvalid, "Title is required")
	ErrTitleEmpty      = NewError(ErrCodeInvalid, "Title cannot be empty")
	ErrInvalidPriority = NewError(ErrCodeInvalid, "Invalid priority. Must be: LOW, MEDIUM, HIGH, URGENT")
	ErrInvalidStatus   = NewError(ErrCodeInvalid, "Invalid status. Must be: PENDING, IN_PROGRESS, COMPLETED, ARCHIVED")
	ErrInvalidDueDate  = NewError(ErrCodeInvalid, "Invalid dueDate")
	ErrInvalidPaging   = NewError(ErrCodeInvalid, "Invalid pagination parameters")
)

// ErrForbiddenTask reports that the caller does not own the task it tried to act on.
func ErrForbiddenTask(action string) *Error {
	return NewError(ErrCodeForbidden, fmt.Sprintf("Unauthorized to %s this task", action))
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// AsDomainError returns the first domain error in err's chain.
func AsDomainError(err error) (*Error, bool) {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
