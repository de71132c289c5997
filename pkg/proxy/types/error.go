package types

// ErrorResponse is the JSON error shape returned for all failed requests.
type ErrorResponse struct {
	// Error is a short human-readable message
	Error string `json:"error"`

	// Details carries the provider's raw error body for upstream
	// failures, when one is available
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates an error response without details.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// NewUpstreamErrorResponse creates an error response carrying the raw
// provider error body.
func NewUpstreamErrorResponse(message, details string) *ErrorResponse {
	return &ErrorResponse{Error: message, Details: details}
}
