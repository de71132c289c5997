package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClient is the shared HTTP transport used by provider adapters.
// It provides connection pooling and timeout handling. Every request is a
// single attempt: a failed request fails the caller, it is never retried.
type HTTPClient struct {
	// name is the provider name, used in errors and logs
	name string

	// client is the HTTP client with connection pooling
	client *http.Client

	// streamClient shares the transport but carries no overall timeout;
	// an http.Client timeout would sever long-lived SSE bodies mid-read
	streamClient *http.Client
}

// HTTPClientConfig contains the transport settings for an adapter.
type HTTPClientConfig struct {
	// Name is the provider identifier
	Name string

	// Timeout is the per-request timeout (0 disables it; streaming
	// requests rely on context cancellation instead)
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// NewHTTPClient creates a pooled HTTP client for a provider adapter.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		name: cfg.Name,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// Do performs a single HTTP request. Network failures return a
// *TransportError; responses are returned for any status code, and the
// caller decides how to interpret non-2xx statuses.
func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return c.do(ctx, c.client, method, url, body, headers)
}

func (c *HTTPClient) do(ctx context.Context, client *http.Client, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.DebugContext(ctx, "sending request to provider",
		"provider", c.name,
		"method", method,
		"url", url,
	)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: c.name, Cause: err}
	}

	return resp, nil
}

// DoJSON performs a JSON request and returns the raw response body.
// A non-2xx status drains the body and returns an *UpstreamError.
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, reqBody interface{}, headers map[string]string) ([]byte, error) {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.Do(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: c.name, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Body:       string(respBytes),
		}
	}

	return respBytes, nil
}

// OpenStream performs a streaming request and returns the response body on
// success. A non-2xx status drains the body, closes it, and returns an
// *UpstreamError so the caller never relays a failed stream.
func (c *HTTPClient) OpenStream(ctx context.Context, url string, reqBody interface{}, headers map[string]string) (io.ReadCloser, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, c.streamClient, http.MethodPost, url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &UpstreamError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	return resp.Body, nil
}
