// Package usage records per-request accounting rows: which provider and
// model served a request, token counts, latency, and outcome. The usage
// log never stores credentials or message content.
package usage

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one usage log row.
type Record struct {
	// ID is a unique record identifier
	ID string `json:"id"`

	// Timestamp is when the request completed
	Timestamp time.Time `json:"timestamp"`

	// Provider served the request
	Provider string `json:"provider"`

	// Model is the requested model
	Model string `json:"model"`

	// PromptTokens and CompletionTokens come from the provider's usage
	// accounting; zero when the provider reported none
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`

	// LatencyMS is the end-to-end request latency in milliseconds
	LatencyMS int64 `json:"latency_ms"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// Streamed reports whether the response was streamed
	Streamed bool `json:"streamed"`
}

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Storage is the usage log backend interface.
type Storage interface {
	// Insert persists one usage record.
	Insert(ctx context.Context, record *Record) error

	// DeleteBefore removes records older than cutoff and reports how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases backend resources.
	Close() error
}

// tokenUsage covers both provider accounting shapes: OpenAI reports
// prompt_tokens/completion_tokens, Anthropic reports
// input_tokens/output_tokens.
type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
}

// TokenCounts extracts prompt and completion token counts from a
// provider's verbatim usage object. Unknown shapes yield zeros.
func TokenCounts(raw json.RawMessage) (prompt, completion int) {
	if len(raw) == 0 {
		return 0, 0
	}

	var u tokenUsage
	if err := json.Unmarshal(raw, &u); err != nil {
		return 0, 0
	}

	prompt = u.PromptTokens
	if prompt == 0 {
		prompt = u.InputTokens
	}
	completion = u.CompletionTokens
	if completion == 0 {
		completion = u.OutputTokens
	}
	return prompt, completion
}
