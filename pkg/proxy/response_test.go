package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/proxy/types"
)

// TestWriteJSON tests the basic JSON response writer.
func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
}

// TestStreamWriter tests the SSE event encodings.
func TestStreamWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewStreamWriter(rec)

	if err := sw.Delta("hello"); err != nil {
		t.Fatalf("Delta() failed: %v", err)
	}
	if err := sw.Error("upstream broke"); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}
	if err := sw.Done(); err != nil {
		t.Fatalf("Done() failed: %v", err)
	}

	body := rec.Body.String()

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Error("Expected Cache-Control: no-cache")
	}

	events := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d: %q", len(events), body)
	}

	var delta types.StreamEvent
	if err := json.Unmarshal([]byte(strings.TrimPrefix(events[0], "data: ")), &delta); err != nil {
		t.Fatalf("Unparseable delta event: %v", err)
	}
	if delta.Content != "hello" || delta.Finished {
		t.Errorf("Unexpected delta event: %+v", delta)
	}

	var streamErr types.StreamErrorEvent
	if err := json.Unmarshal([]byte(strings.TrimPrefix(events[1], "data: ")), &streamErr); err != nil {
		t.Fatalf("Unparseable error event: %v", err)
	}
	if streamErr.Error != "upstream broke" {
		t.Errorf("Unexpected error event: %+v", streamErr)
	}

	if events[2] != "data: [DONE]" {
		t.Errorf("Expected the literal done marker, got %q", events[2])
	}
}

// TestHandleError tests the error-to-status mapping at the HTTP boundary.
func TestHandleError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing_field", &keystore.MissingFieldError{Field: "provider"}, http.StatusBadRequest},
		{"bad_format", &keystore.InvalidFormatError{Provider: "openai", Prefix: "sk-"}, http.StatusBadRequest},
		{"validation", &providers.ValidationError{Field: "model", Message: "empty"}, http.StatusBadRequest},
		{"unknown_provider", &providers.UnknownProviderError{Provider: "nope"}, http.StatusBadRequest},
		{"no_key", fmt.Errorf("%w %q", keystore.ErrNotFound, "openai"), http.StatusUnauthorized},
		{"upstream", &providers.UpstreamError{Provider: "openai", StatusCode: 429, Body: "{}"}, http.StatusInternalServerError},
		{"transport", &providers.TransportError{Provider: "openai", Cause: errors.New("dial")}, http.StatusInternalServerError},
		{"parse", &providers.ParseError{Provider: "openai", Cause: errors.New("bad json")}, http.StatusInternalServerError},
		{"unclassified", errors.New("who knows"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, status := HandleError(tc.err)
			if status != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, status)
			}
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

// TestHandleError_UpstreamDetails tests that the raw provider body rides
// along in details.
func TestHandleError_UpstreamDetails(t *testing.T) {
	resp, _ := HandleError(&providers.UpstreamError{
		Provider:   "anthropic",
		StatusCode: 529,
		Body:       `{"type": "overloaded_error"}`,
	})

	if !strings.Contains(resp.Details, "overloaded_error") {
		t.Errorf("Expected the provider body in details, got %q", resp.Details)
	}
}

// TestHandleError_HidesInternals tests that unclassified errors never leak
// their message.
func TestHandleError_HidesInternals(t *testing.T) {
	resp, _ := HandleError(errors.New("pq: password authentication failed"))
	if resp.Error != "internal server error" {
		t.Errorf("Unclassified errors must use the generic message, got %q", resp.Error)
	}
}
