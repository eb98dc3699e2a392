package types

import (
	"errors"
	"fmt"
)

// Error codes carried by DomainError.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNoMatchingResult   = "NO_MATCHING_RESULT"
	ErrCodePreferencesMissing = "PREFERENCES_MISSING"
	ErrCodeInvalidConstraint  = "INVALID_CONSTRAINT"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeListEmpty          = "LIST_EMPTY"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// DomainError is a business-level failure with a stable code.
// Two DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Code    string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = NewDomainError(ErrCodeNotFound, "resource not found")
	ErrNoMatchingResult   = NewDomainError(ErrCodeNoMatchingResult, "no store satisfies the given constraints")
	ErrPreferencesMissing = NewDomainError(ErrCodePreferencesMissing, "no budget preference recorded for user")
	ErrInvalidConstraint  = NewDomainError(ErrCodeInvalidConstraint, "invalid constraint")
	ErrConflict           = NewDomainError(ErrCodeConflict, "conflict")
	ErrListEmpty          = NewDomainError(ErrCodeListEmpty, "shopping list has no items")
	ErrInternal           = NewDomainError(ErrCodeInternal, "internal error")
)

// NotFound reports a missing entity, e.g. NotFound("user", 7).
func NotFound(entity string, id int64) error {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf("%s %d not found", entity, id))
}

// NoMatchingResult reports that constraints removed every candidate.
func NoMatchingResult(reason string) error {
	return NewDomainError(ErrCodeNoMatchingResult, reason)
}

// InvalidConstraint reports a rejected request parameter.
func InvalidConstraint(field, reason string) error {
	return NewDomainError(ErrCodeInvalidConstraint, field+": "+reason)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) error {
	return NewDomainError(ErrCodeConflict, message)
}

// Internal wraps an unexpected data access failure. The cause stays available
// to errors.Unwrap for logging but never reaches the message.
func Internal(op string, cause error) error {
	return &DomainError{Code: ErrCodeInternal, Message: op + " failed", cause: cause}
}

// CodeOf returns the domain code of err, or ErrCodeInternal for anything else.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}
