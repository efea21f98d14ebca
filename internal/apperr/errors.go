// Package apperr defines the error kinds surfaced by the comment pipeline.
// Callers classify errors with errors.As; every kind maps to one public
// error code.
package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Public error codes
const (
	CodeValidation   = "validation_error"
	CodeRateLimited  = "rate_limited"
	CodeDuplicate    = "duplicate"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal_error"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationError reports bad input shape or bounds
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError with a single field reason
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// RateLimitedError is returned when a submitter exhausted the current window
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// RetryAfter returns the time left until the window resets, rounded up to a second
func (e *RateLimitedError) RetryAfter(now time.Time) time.Duration {
	d := e.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return d.Truncate(time.Second) + time.Second
}

// DuplicateError is returned when equivalent content was already submitted
type DuplicateError struct {
	ParagraphID int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate comment for paragraph %d", e.ParagraphID)
}

// UnauthorizedError is returned when the admin capability check fails
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

// NotFoundError is returned when a referenced comment or document is absent
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StorageError wraps a persistence failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError, returning nil for nil
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Code returns the public error code for err
func Code(err error) string {
	var (
		validation   *ValidationError
		rateLimited  *RateLimitedError
		duplicate    *DuplicateError
		unauthorized *UnauthorizedError
		notFound     *NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &rateLimited):
		return CodeRateLimited
	case errors.As(err, &duplicate):
		return CodeDuplicate
	case errors.As(err, &unauthorized):
		return CodeUnauthorized
	case errors.As(err, &notFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// PublicMessage returns a message that is safe to show to an anonymous
// submitter. Storage and unknown errors collapse to a generic message.
func PublicMessage(err error) string {
	switch Code(err) {
	case CodeValidation:
		return err.Error()
	case CodeRateLimited:
		return "Too many comments submitted. Please try again later."
	case CodeDuplicate:
		return "You already submitted this comment."
	case CodeUnauthorized:
		return "Unauthorized."
	case CodeNotFound:
		return err.Error()
	default:
		return "Failed to submit comment. Please try again later."
	}
}

// IsUnauthorized reports whether err is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}
