package providers

import "encoding/json"

// ChatMessage represents a single message in a conversation.
// Messages are passed through to the provider unmodified.
type ChatMessage struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// ChatRequest represents a provider-agnostic chat request.
// It is transformed to provider-specific wire formats by each adapter.
type ChatRequest struct {
	// Model is the model identifier (e.g., "gpt-4o", "claude-sonnet-4-5")
	Model string `json:"model"`

	// Messages is the conversation history, forwarded as-is
	Messages []ChatMessage `json:"messages"`

	// Stream indicates whether to stream the response
	Stream bool `json:"stream,omitempty"`

	// MaxTokens caps the completion length (0 lets the adapter choose)
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ChatResult is the normalized non-streaming response shape returned by
// every adapter. It is immutable once returned.
type ChatResult struct {
	// Content is the generated text content
	Content string `json:"content"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Usage is the provider's token accounting object, verbatim
	Usage json.RawMessage `json:"usage,omitempty"`
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Well-known provider names.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)
