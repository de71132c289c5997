// Package openai implements the OpenAI chat completions adapter.
package openai

import (
	"context"
	"io"
	"net/http"
	"time"

	"keybridge-hq/keybridge/pkg/providers"
)

const (
	// DefaultBaseURL is the OpenAI API base.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Config contains the adapter's settings.
type Config struct {
	// BaseURL overrides the API base (for tests and compatible gateways)
	BaseURL string

	// Timeout is the non-streaming request timeout
	Timeout time.Duration
}

// Client is the OpenAI provider adapter. It holds no credentials; the API
// key is supplied per call.
type Client struct {
	baseURL string
	http    *providers.HTTPClient
}

// New creates an OpenAI adapter.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		http: providers.NewHTTPClient(providers.HTTPClientConfig{
			Name:    providers.NameOpenAI,
			Timeout: cfg.Timeout,
		}),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return providers.NameOpenAI
}

// Complete sends a non-streaming chat completion request and normalizes
// the response.
func (c *Client) Complete(ctx context.Context, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	body, err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/chat/completions",
		transformRequest(req, false), c.headers(apiKey))
	if err != nil {
		return nil, err
	}

	return normalizeResponse(body)
}

// OpenStream sends a streaming chat completion request and returns the raw
// SSE body.
func (c *Client) OpenStream(ctx context.Context, apiKey string, req *providers.ChatRequest) (io.ReadCloser, error) {
	headers := c.headers(apiKey)
	headers["Accept"] = "text/event-stream"

	return c.http.OpenStream(ctx, c.baseURL+"/chat/completions", transformRequest(req, true), headers)
}

// ExtractDelta extracts the incremental content from one stream payload.
func (c *Client) ExtractDelta(payload []byte) (string, bool) {
	return extractDelta(payload)
}

// CheckKey probes the models listing endpoint. Any 2xx response means the
// key is live; everything else, including transport failures, means it is
// not.
func (c *Client) CheckKey(ctx context.Context, apiKey string) bool {
	resp, err := c.http.Do(ctx, http.MethodGet, c.baseURL+"/models", nil, c.headers(apiKey))
	if err != nil {
		return false
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) headers(apiKey string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
	}
}
