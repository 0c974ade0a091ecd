// Package provider implements the embedding client against OpenAI-compatible
// APIs.
package provider

import "errors"

// errEmbeddingCountMismatch indicates the API returned fewer embedding vectors
// than requested. Retryable: transient upstream issues (e.g. rate-limiting
// behind a 200 status) can produce partial responses.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// response body contained an error instead of embedding data. Routing
// providers do this when every upstream fails; retrying is futile.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// ProviderError wraps embedding API errors with operation context.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.cause }

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code if available.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// IsRateLimited returns true when the error is due to rate limiting.
func (e *ProviderError) IsRateLimited() bool { return e.statusCode == 429 }
