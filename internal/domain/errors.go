package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrUserIDRequired    = errors.New("user ID is required")
	ErrEventIDRequired   = errors.New("event ID is required")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
	ErrAmountNegative    = errors.New("amount cannot be negative")
	ErrColorRequired     = errors.New("color is required")
	ErrNoFieldsToUpdate  = errors.New("at least one field must be provided")
	ErrInvalidEventType  = errors.New("invalid event type")
	ErrDueDateRequired   = errors.New("due date is required")
	ErrScheduleEmpty     = errors.New("payment schedule must contain at least one payment")
	ErrScheduleNotActive = errors.New("expense does not have a payment schedule")
	ErrScheduleExists    = errors.New("expense already has a payment schedule")
)

// Validation constants
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// ValidationError describes a single invalid field. It unwraps to ErrInvalidInput
// so callers can branch on errors.Is(err, ErrInvalidInput).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field wrapping cause
func NewValidationError(field string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: cause.Error(), Err: cause}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match both the specific cause and ErrInvalidInput
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{e.Err, ErrInvalidInput}
}
