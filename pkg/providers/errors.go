package providers

import "fmt"

// UpstreamError represents a non-2xx response from a provider API.
// It carries the provider's HTTP status code and the raw response body so
// the caller can surface provider diagnostics without re-interpreting them.
type UpstreamError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code returned by the provider
	StatusCode int

	// Body is the raw response body as returned by the provider
	Body string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q returned status %d", e.Provider, e.StatusCode)
}

// TransportError represents a network-level failure reaching a provider
// (connection refused, DNS failure, timeout, connection reset mid-stream).
type TransportError struct {
	// Provider is the name of the provider being reached
	Provider string

	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q transport error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed provider response.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request validation failure detected before
// anything is sent upstream.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Message)
}

// UnknownProviderError indicates a provider name with no registered adapter.
type UnknownProviderError struct {
	// Provider is the unrecognized provider name
	Provider string
}

// Error implements the error interface.
func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Provider)
}
