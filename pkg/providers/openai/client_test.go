package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"keybridge-hq/keybridge/pkg/providers"
)

func newTestClient(serverURL string) *Client {
	return New(Config{BaseURL: serverURL})
}

// TestClient_Complete tests non-streaming response normalization.
func TestClient_Complete(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {"role": "assistant", "content": "Hi there"}}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
		}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Complete(context.Background(), "sk-test", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected 'Bearer sk-test', got %q", gotAuth)
	}
	if gotBody.Stream {
		t.Error("Non-streaming request must not set stream")
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "Hello" {
		t.Errorf("Messages were not forwarded unmodified: %+v", gotBody.Messages)
	}

	if result.Content != "Hi there" {
		t.Errorf("Expected content 'Hi there', got %q", result.Content)
	}
	if result.Model != "gpt-4o-2024-08-06" {
		t.Errorf("Expected the provider's reported model, got %q", result.Model)
	}

	var usage map[string]int
	if err := json.Unmarshal(result.Usage, &usage); err != nil {
		t.Fatalf("Usage is not valid JSON: %v", err)
	}
	if usage["total_tokens"] != 7 {
		t.Errorf("Expected usage passed through verbatim, got %v", usage)
	}
}

// TestClient_CompleteUpstreamError tests that non-2xx responses surface as
// upstream errors with the provider body attached.
func TestClient_CompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "rate limit"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "sk-test", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
	})

	var upstreamErr *providers.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", upstreamErr.StatusCode)
	}
	if upstreamErr.Body == "" {
		t.Error("Expected the provider body to be preserved")
	}
}

// TestClient_CompleteMalformedResponse tests that unparseable 2xx bodies
// surface as parse errors.
func TestClient_CompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "sk-test", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
	})

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
}

// TestClient_CompleteNoChoices tests that a well-formed response without
// choices is a parse error.
func TestClient_CompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model": "gpt-4o", "choices": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "sk-test", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
	})

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
}

// TestClient_OpenStream tests that the streaming request sets stream=true
// and returns the raw body.
func TestClient_OpenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if !req.Stream {
			t.Error("Streaming request must set stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, err := client.OpenStream(context.Background(), "sk-test", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("OpenStream() failed: %v", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read stream body: %v", err)
	}
	if len(raw) == 0 {
		t.Error("Expected raw SSE bytes")
	}
}

// TestClient_OpenStreamUpstreamError tests that a non-2xx streaming
// response is an upstream error, not an open stream.
func TestClient_OpenStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "bad key"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.OpenStream(context.Background(), "sk-bad", &providers.ChatRequest{
		Model:    "gpt-4o",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "Hello"}},
		Stream:   true,
	})

	var upstreamErr *providers.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", upstreamErr.StatusCode)
	}
}

// TestClient_CheckKey tests the models-listing liveness probe.
func TestClient_CheckKey(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"forbidden", http.StatusForbidden, false},
		{"server_error", http.StatusInternalServerError, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/models" {
					t.Errorf("Expected GET /models, got %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			if got := client.CheckKey(context.Background(), "sk-test"); got != tc.want {
				t.Errorf("CheckKey() with status %d = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

// TestClient_CheckKeyTransportFailure tests that an unreachable provider
// reports invalid rather than erroring.
func TestClient_CheckKeyTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // probe hits a dead listener

	client := newTestClient(server.URL)
	if client.CheckKey(context.Background(), "sk-test") {
		t.Error("CheckKey() must report false on transport failure")
	}
}

// TestExtractDelta tests stream payload extraction.
func TestExtractDelta(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
		wantOK  bool
	}{
		{"content", `{"choices":[{"delta":{"content":"hello"}}]}`, "hello", true},
		{"role_prelude", `{"choices":[{"delta":{"role":"assistant"}}]}`, "", false},
		{"finish_chunk", `{"choices":[{"delta":{},"finish_reason":"stop"}]}`, "", false},
		{"no_choices", `{"choices":[]}`, "", false},
		{"malformed", `{nope`, "", false},
		{"empty_content", `{"choices":[{"delta":{"content":""}}]}`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractDelta([]byte(tc.payload))
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("extractDelta(%s) = (%q, %v), want (%q, %v)",
					tc.payload, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

// TestTransformRequest tests wire request construction.
func TestTransformRequest(t *testing.T) {
	req := &providers.ChatRequest{
		Model:     "gpt-4o",
		Messages:  []providers.ChatMessage{{Role: providers.RoleUser, Content: "hi"}},
		MaxTokens: 128,
	}

	wire := transformRequest(req, true)
	if wire.Model != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %q", wire.Model)
	}
	if !wire.Stream {
		t.Error("Expected stream=true")
	}
	if wire.MaxTokens != 128 {
		t.Errorf("Expected max_tokens 128, got %d", wire.MaxTokens)
	}
	if len(wire.Messages) != 1 || wire.Messages[0] != req.Messages[0] {
		t.Errorf("Messages were not forwarded unmodified: %+v", wire.Messages)
	}
}
