// Package errors provides structured error handling for devseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION. The hundreds
// digit names the category: 1xx config, 2xx IO, 3xx network (upstream
// sources, cache, LLM), 4xx validation, 5xx internal.
package errors

// Category classifies errors by where they originate.
type Category string

const (
	CategoryConfig     Category = "CONFIG"     // static configuration
	CategoryIO         Category = "IO"         // file and disk access
	CategoryNetwork    Category = "NETWORK"    // upstream sources, cache, LLM
	CategoryValidation Category = "VALIDATION" // bad caller input
	CategoryInternal   Category = "INTERNAL"   // everything unexpected
)

// Severity tells callers how to react to an error.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"   // abort, no point continuing
	SeverityError   Severity = "ERROR"   // operation failed, caller continues
	SeverityWarning Severity = "WARNING" // degraded, operation continues
	SeverityInfo    Severity = "INFO"    // informational only
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodePatternFile    = "ERR_103_PATTERN_FILE_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeMetricsStore   = "ERR_203_METRICS_STORE"

	// Network errors (300-399)
	ErrCodeNetworkTimeout     = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeNetworkUnavailable = "ERR_302_NETWORK_UNAVAILABLE"
	ErrCodeUpstreamStatus     = "ERR_303_UPSTREAM_STATUS"
	ErrCodeRateLimited        = "ERR_304_RATE_LIMITED"
	ErrCodeCacheUnavailable   = "ERR_305_CACHE_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty    = "ERR_402_QUERY_EMPTY"
	ErrCodeQueryTooShort = "ERR_403_QUERY_TOO_SHORT"
	ErrCodeQueryTooLong  = "ERR_404_QUERY_TOO_LONG"
	ErrCodeInvalidSource = "ERR_405_INVALID_SOURCE"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeSearchFailed    = "ERR_502_SEARCH_FAILED"
	ErrCodeRewriteFailed   = "ERR_503_REWRITE_FAILED"
	ErrCodeSynthesisFailed = "ERR_504_SYNTHESIS_FAILED"
)

// categoryByDigit maps the hundreds digit of a code to its category.
var categoryByDigit = map[byte]Category{
	'1': CategoryConfig,
	'2': CategoryIO,
	'3': CategoryNetwork,
	'4': CategoryValidation,
	'5': CategoryInternal,
}

// categoryFromCode derives the category from the "ERR_XXX_" prefix.
// Malformed codes fall back to internal.
func categoryFromCode(code string) Category {
	if len(code) < len("ERR_000") {
		return CategoryInternal
	}
	if cat, ok := categoryByDigit[code[4]]; ok {
		return cat
	}
	return CategoryInternal
}

// severityFromCode derives severity from the code. Bad static
// configuration must abort startup; retryable network failures only
// degrade a single search.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodePatternFile:
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether a code represents a transient failure.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeNetworkUnavailable, ErrCodeRateLimited, ErrCodeCacheUnavailable:
		return true
	}
	return false
}
