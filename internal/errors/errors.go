package errors

import (
	"fmt"
)

// DexError is the structured error type for empdex.
// It provides rich context for error handling, logging, and user presentation.
type DexError struct {
	// Code is the unique error code (e.g., "ERR_201_CSV_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Gateway, etc.).
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
func (e *DexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DexError.
func (e *DexError) Is(target error) bool {
	if t, ok := target.(*DexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DexError) WithDetail(key, value string) *DexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *DexError) WithSuggestion(suggestion string) *DexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DexError {
	return &DexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DexError from an existing error.
// The error's message becomes the DexError message.
func Wrap(code string, err error) *DexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *DexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// GatewayError creates a search-engine request error.
func GatewayError(message string, cause error) *DexError {
	return New(ErrCodeGatewayRequest, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *DexError {
	return New(ErrCodeMalformedValue, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a DexError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DexError); ok {
		return de.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current batch.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DexError); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a DexError.
// Returns empty string if not a DexError.
func GetCode(err error) string {
	if de, ok := err.(*DexError); ok {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category from a DexError.
// Returns empty string if not a DexError.
func GetCategory(err error) Category {
	if de, ok := err.(*DexError); ok {
		return de.Category
	}
	return ""
}
