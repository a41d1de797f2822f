package errors

import (
	"fmt"
)

// DevseekError is the structured error type for devseek.
// It provides rich context for error handling, logging, and user presentation.
type DevseekError struct {
	// Code is the unique error code (e.g., "ERR_301_NETWORK_TIMEOUT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DevseekError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DevseekError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DevseekError.
func (e *DevseekError) Is(target error) bool {
	if t, ok := target.(*DevseekError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DevseekError) WithDetail(key, value string) *DevseekError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *DevseekError) WithSuggestion(suggestion string) *DevseekError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DevseekError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DevseekError {
	return &DevseekError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DevseekError from an existing error.
// The error's message becomes the DevseekError message.
func Wrap(code string, err error) *DevseekError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *DevseekError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NetworkError creates a network-related error.
// Network errors are typically retryable.
func NetworkError(message string, cause error) *DevseekError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// UpstreamError creates an error for an unexpected upstream response.
// Not retryable: the upstream answered, it just answered badly.
func UpstreamError(message string, cause error) *DevseekError {
	return New(ErrCodeUpstreamStatus, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *DevseekError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DevseekError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a DevseekError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DevseekError); ok {
		return de.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DevseekError); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a DevseekError.
// Returns empty string if not a DevseekError.
func GetCode(err error) string {
	if de, ok := err.(*DevseekError); ok {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category from a DevseekError.
// Returns empty string if not a DevseekError.
func GetCategory(err error) Category {
	if de, ok := err.(*DevseekError); ok {
		return de.Category
	}
	return ""
}
