package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DailyNewsLimit is the maximum number of NEWS posts an author may publish
// per calendar day.
const DailyNewsLimit = 3

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// RateLimitError is returned when an author attempts to publish more NEWS
// posts than DailyNewsLimit allows on one calendar day. Count carries the
// number of NEWS posts already published today, reported back to the caller.
type RateLimitError struct {
	Count int
}

// Error returns a formatted error message including the current count.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily news limit reached: %d of %d news posts already published today", e.Count, DailyNewsLimit)
}
