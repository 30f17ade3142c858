// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates no classifier or tagger service is configured.
	// The pipeline degrades to deterministic fallbacks when it sees this.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedOutput indicates a model answered with an unusable shape
	// (unknown label, token/label length mismatch, missing function call).
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrUnknownIntent indicates an intent label outside the closed enumeration.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrRateLimitExceeded indicates a caller exceeded its request budget.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ModelError records which service failed and why.
type ModelError struct {
	Service  string // "classifier" or "tagger:<intent>"
	Provider string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Service, e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
