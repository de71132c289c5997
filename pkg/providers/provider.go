package providers

import (
	"context"
	"io"
)

// Provider is the interface implemented by each upstream adapter.
// Adapters hold no credentials; the API key for each call is supplied by the
// caller, which resolves it from the credential store per request.
//
// All methods accept a context.Context for cancellation and timeout control
// and must return promptly when the context is cancelled.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Complete sends a non-streaming chat request and returns the normalized
	// result. A non-2xx provider response yields an *UpstreamError carrying
	// the provider's status code and raw body.
	Complete(ctx context.Context, apiKey string, req *ChatRequest) (*ChatResult, error)

	// OpenStream sends a streaming chat request and returns the raw
	// server-sent-events body on success. The caller owns the returned
	// reader and must close it. A non-2xx response is drained and returned
	// as an *UpstreamError; the stream is never opened in that case.
	OpenStream(ctx context.Context, apiKey string, req *ChatRequest) (io.ReadCloser, error)

	// ExtractDelta extracts the incremental text content from one parsed
	// SSE data payload. It reports false when the payload is malformed or
	// carries no text delta; such payloads are dropped by the relay.
	ExtractDelta(payload []byte) (string, bool)

	// CheckKey probes the provider with a lightweight request to determine
	// whether the given API key is live. Network failures and unexpected
	// statuses report false; the probe never returns an error.
	CheckKey(ctx context.Context, apiKey string) bool
}
