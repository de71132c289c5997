// Package anthropic implements the Anthropic messages adapter.
package anthropic

import (
	"context"
	"io"
	"net/http"
	"time"

	"keybridge-hq/keybridge/pkg/providers"
)

const (
	// DefaultBaseURL is the Anthropic API base.
	DefaultBaseURL = "https://api.anthropic.com"

	// apiVersion is the anthropic-version header value sent on every call.
	apiVersion = "2023-06-01"

	// defaultMaxTokens caps the completion when the caller does not;
	// the messages endpoint requires an explicit value.
	defaultMaxTokens = 4096

	// probeModel is the inexpensive model used by key liveness probes.
	probeModel = "claude-3-5-haiku-latest"
)

// Config contains the adapter's settings.
type Config struct {
	// BaseURL overrides the API base (for tests and compatible gateways)
	BaseURL string

	// Timeout is the non-streaming request timeout
	Timeout time.Duration
}

// Client is the Anthropic provider adapter. It holds no credentials; the
// API key is supplied per call.
type Client struct {
	baseURL string
	http    *providers.HTTPClient
}

// New creates an Anthropic adapter.
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
			Name:    providers.NameAnthropic,
			Timeout: cfg.Timeout,
		}),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return providers.NameAnthropic
}

// Complete sends a non-streaming messages request and normalizes the
// response.
func (c *Client) Complete(ctx context.Context, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	body, err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/messages",
		transformRequest(req, false), c.headers(apiKey))
	if err != nil {
		return nil, err
	}

	return normalizeResponse(body)
}

// OpenStream sends a streaming messages request and returns the raw SSE
// body.
func (c *Client) OpenStream(ctx context.Context, apiKey string, req *providers.ChatRequest) (io.ReadCloser, error) {
	headers := c.headers(apiKey)
	headers["Accept"] = "text/event-stream"

	return c.http.OpenStream(ctx, c.baseURL+"/v1/messages", transformRequest(req, true), headers)
}

// ExtractDelta extracts the incremental content from one stream payload.
func (c *Client) ExtractDelta(payload []byte) (string, bool) {
	return extractDelta(payload)
}

// CheckKey probes the messages endpoint with a one-token request.
// A 2xx response means the key is live. A 400 also means the key is live:
// Anthropic returns it for well-formed requests rejected on argument or
// quota grounds, which still proves the key authenticated. A 401, any
// other status, or a transport failure means the key is not usable.
func (c *Client) CheckKey(ctx context.Context, apiKey string) bool {
	probe := &messagesRequest{
		Model:     probeModel,
		MaxTokens: 1,
		Messages: []providers.ChatMessage{
			{Role: providers.RoleUser, Content: "ping"},
		},
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+"/v1/messages", mustMarshal(probe), c.headers(apiKey))
	if err != nil {
		return false
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true
	}
	return resp.StatusCode == http.StatusBadRequest
}

func (c *Client) headers(apiKey string) map[string]string {
	return map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": apiVersion,
	}
}
