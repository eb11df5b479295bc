package core

import (
	"errors"
	"fmt"
)

// ValidationError reports input that was rejected before any state changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DataError reports a stored or upstream value that could not be parsed.
// Aggregations treat the offending value as zero instead of failing.
type DataError struct {
	Field string
	Value string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: non-numeric value %q treated as 0", e.Field, e.Value)
}

var (
	ErrInvalidAmount   = &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	ErrNegativeAmount  = &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	ErrEmptyCategory   = &ValidationError{Field: "category", Message: "empty category"}
	ErrEmptyUser       = &ValidationError{Field: "userEmail", Message: "empty user email"}
	ErrDescriptionLong = &ValidationError{Field: "description", Message: "description too long (max 200 characters)"}
	ErrZeroDate        = &ValidationError{Field: "purchaseDate", Message: "date cannot be zero"}
	ErrInvalidMonth    = &ValidationError{Field: "month", Message: "month must be in YYYY-MM format"}
)

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
