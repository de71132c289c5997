package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"keybridge-hq/keybridge/pkg/proxy/types"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteError maps err through HandleError and writes the resulting error
// response.
func WriteError(w http.ResponseWriter, err error) {
	errResp, statusCode := HandleError(err)
	_ = WriteJSON(w, statusCode, errResp)
}

// SetSSEHeaders sets the response headers for a server-sent-events stream.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// StreamWriter writes normalized SSE events to an HTTP response. It
// implements the relay's event sink: content events, the terminal [DONE]
// marker, and in-band error events, each flushed immediately.
type StreamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStreamWriter prepares an SSE response on w. Headers are written on
// the first event.
func NewStreamWriter(w http.ResponseWriter) *StreamWriter {
	SetSSEHeaders(w)

	flusher, _ := w.(http.Flusher)
	return &StreamWriter{w: w, flusher: flusher}
}

// Delta writes one content event.
func (s *StreamWriter) Delta(content string) error {
	return s.writeEvent(&types.StreamEvent{Content: content, Finished: false})
}

// Done writes the literal terminal marker.
func (s *StreamWriter) Done() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE done marker: %w", err)
	}
	s.flush()
	return nil
}

// Error writes an in-band error event.
func (s *StreamWriter) Error(message string) error {
	return s.writeEvent(&types.StreamErrorEvent{Error: message})
}

func (s *StreamWriter) writeEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}

	s.flush()
	return nil
}

func (s *StreamWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
