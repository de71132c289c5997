// Package types defines the external JSON shapes of the proxy API.
package types

import "keybridge-hq/keybridge/pkg/providers"

// SaveKeyRequest is the body of POST /keys.
type SaveKeyRequest struct {
	// Provider is the provider the key belongs to
	Provider string `json:"provider"`

	// APIKey is the key to store server-side
	APIKey string `json:"apiKey"`
}

// SaveKeyResponse is the success body of POST /keys.
type SaveKeyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidateKeyRequest is the body of POST /validate.
type ValidateKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// ValidateKeyResponse is the body of POST /validate.
// Valid reports the liveness probe verdict; an unreachable provider
// reports false rather than an error.
type ValidateKeyResponse struct {
	Valid bool `json:"valid"`
}

// ChatRequest is the body of POST /chat. Messages are forwarded to the
// provider unmodified.
type ChatRequest struct {
	Provider string                  `json:"provider"`
	Model    string                  `json:"model"`
	Messages []providers.ChatMessage `json:"messages"`
	Stream   bool                    `json:"stream,omitempty"`
}

// StreamEvent is one normalized SSE event of a streaming chat response.
// The stream is terminated by a literal "data: [DONE]" marker rather than
// a StreamEvent.
type StreamEvent struct {
	Content  string `json:"content"`
	Finished bool   `json:"finished"`
}

// StreamErrorEvent is the in-band error event emitted when a stream fails
// after it has started.
type StreamErrorEvent struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}
