package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every module. HTTP and logging layers key off these.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeIntegrity  = "INTEGRITY_VIOLATION"
	CodeNotFound   = "NOT_FOUND"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed input or a violated invariant.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewConflictError reports a uniqueness or concurrency clash.
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// NewForbiddenError reports an actor lacking the required capability.
func NewForbiddenError(format string, args ...any) *DomainError {
	return NewDomainError(CodeForbidden, fmt.Sprintf(format, args...))
}

// NewInternalError wraps a storage or infrastructure failure.
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound   = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict   = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrIntegrity  = NewDomainError(CodeIntegrity, "Record is still referenced")
	ErrForbidden  = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInternal   = NewDomainError(CodeInternal, "Internal error")
)

// Violation is a blocking reference found by an integrity check.
type Violation struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Count  int64  `json:"count"`
}

// IntegrityError is returned when a delete is blocked by restrict references.
type IntegrityError struct {
	*DomainError
	Violations []Violation `json:"violations"`
}

// NewIntegrityError builds an IntegrityError listing every blocking reference.
func NewIntegrityError(table string, violations []Violation) *IntegrityError {
	return &IntegrityError{
		DomainError: NewDomainError(CodeIntegrity,
			fmt.Sprintf("cannot delete from %s: %d blocking reference group(s)", table, len(violations))),
		Violations: violations,
	}
}

// Unwrap exposes the embedded DomainError to errors.As / errors.Is.
func (e *IntegrityError) Unwrap() error {
	return e.DomainError
}

// CodeOf returns the domain error code carried by err, or CodeInternal.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
