package errors

import (
	"errors"
	"fmt"
)

// NavError is the structured error type for HealthNav.
// It carries enough context for callers to distinguish configuration
// faults from transient service faults from storage faults.
type NavError struct {
	// Code is the unique error code (e.g., "ERR_303_EMBEDDING_SERVICE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Network, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried by the caller.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *NavError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NavError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with NavError.
func (e *NavError) Is(target error) bool {
	if t, ok := target.(*NavError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *NavError) WithDetail(key, value string) *NavError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *NavError) WithSuggestion(suggestion string) *NavError {
	e.Suggestion = suggestion
	return e
}

// New creates a new NavError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *NavError {
	return &NavError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a NavError from an existing error.
// The error's message becomes the NavError message.
func Wrap(code string, err error) *NavError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *NavError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates an index artifact read/write error.
func StorageError(message string, cause error) *NavError {
	return New(ErrCodeStorageRead, message, cause)
}

// EmbeddingServiceError creates a remote embedding call error.
// These are typically retryable by the caller.
func EmbeddingServiceError(message string, cause error) *NavError {
	return New(ErrCodeEmbeddingService, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *NavError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *NavError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error chain contains a NavError with Retryable set.
func IsRetryable(err error) bool {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a NavError in the chain.
// Returns empty string if none is found.
func GetCode(err error) string {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// GetCategory extracts the category from a NavError in the chain.
// Returns empty string if none is found.
func GetCategory(err error) Category {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Category
	}
	return ""
}
