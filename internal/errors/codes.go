// Package errors provides structured error handling for empdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, journal, lock)
//   - 3XX: Gateway errors (search engine)
//   - 4XX: Validation errors (CSV batch)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryGateway indicates search-engine request errors.
	CategoryGateway Category = "GATEWAY"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// IO errors (200-299)
	ErrCodeCSVNotFound    = "ERR_201_CSV_NOT_FOUND"
	ErrCodeCSVMalformed   = "ERR_202_CSV_MALFORMED"
	ErrCodeFilePermission = "ERR_203_FILE_PERMISSION"
	ErrCodeJournalFailed  = "ERR_204_JOURNAL_FAILED"
	ErrCodeLockHeld       = "ERR_205_LOCK_HELD"

	// Gateway errors (300-399)
	ErrCodeGatewayUnavailable = "ERR_301_GATEWAY_UNAVAILABLE"
	ErrCodeGatewayRequest     = "ERR_302_GATEWAY_REQUEST"
	ErrCodeDocumentNotFound   = "ERR_303_DOCUMENT_NOT_FOUND"

	// Validation errors (400-499)
	ErrCodeMalformedValue     = "ERR_401_MALFORMED_VALUE"
	ErrCodeNullField          = "ERR_402_NULL_FIELD"
	ErrCodeNullIdentifier     = "ERR_403_NULL_IDENTIFIER"
	ErrCodeUnknownColumn      = "ERR_404_UNKNOWN_COLUMN"
	ErrCodeIdentifierExcluded = "ERR_405_IDENTIFIER_EXCLUDED"
	ErrCodeUnknownField       = "ERR_406_UNKNOWN_FIELD"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryGateway
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Batch-aborting errors
	switch code {
	case ErrCodeMalformedValue, ErrCodeNullField, ErrCodeIdentifierExcluded:
		return SeverityFatal
	}

	// Skipped-row and retryable conditions degrade but continue
	switch code {
	case ErrCodeNullIdentifier:
		return SeverityWarning
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Nothing in the ingest path retries; the flag only classifies the
// failure for logging and exit handling.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeGatewayUnavailable:
		return true
	default:
		return false
	}
}
