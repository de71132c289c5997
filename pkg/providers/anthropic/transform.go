package anthropic

import (
	"encoding/json"
	"errors"

	"keybridge-hq/keybridge/pkg/providers"
)

// Anthropic API wire types

// messagesRequest is the messages endpoint request body.
type messagesRequest struct {
	Model     string                  `json:"model"`
	MaxTokens int                     `json:"max_tokens"`
	Messages  []providers.ChatMessage `json:"messages"`
	Stream    bool                    `json:"stream,omitempty"`
}

// messagesResponse is the non-streaming messages response body.
type messagesResponse struct {
	Model   string          `json:"model"`
	Content []contentBlock  `json:"content"`
	Usage   json.RawMessage `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// streamEvent is one SSE data payload in a streaming response. Only
// content_block_delta events carry text; all other event types
// (message_start, content_block_start, ping, message_stop, ...) are
// dropped.
type streamEvent struct {
	Type  string     `json:"type"`
	Delta eventDelta `json:"delta"`
}

type eventDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// eventContentBlockDelta is the only stream event type that carries an
// incremental text delta.
const eventContentBlockDelta = "content_block_delta"

// transformRequest builds the provider wire request. Messages are
// forwarded unmodified; max_tokens is mandatory on this endpoint, so a
// default is applied when the caller leaves it unset.
func transformRequest(req *providers.ChatRequest, stream bool) *messagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		Messages:  req.Messages,
		Stream:    stream,
	}
}

// normalizeResponse maps a provider response body onto the common result
// shape: content from the first content block, the provider's reported
// model, and the usage object verbatim.
func normalizeResponse(body []byte) (*providers.ChatResult, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &providers.ParseError{
			Provider:    providers.NameAnthropic,
			RawResponse: string(body),
			Cause:       err,
		}
	}

	if len(resp.Content) == 0 {
		return nil, &providers.ParseError{
			Provider:    providers.NameAnthropic,
			RawResponse: string(body),
			Cause:       errors.New("no content blocks in response"),
		}
	}

	return &providers.ChatResult{
		Content: resp.Content[0].Text,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}

// extractDelta pulls the incremental content from one stream payload.
// Payloads that are not content_block_delta events, are malformed, or
// carry an empty text field report false and are dropped by the relay.
func extractDelta(payload []byte) (string, bool) {
	var event streamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", false
	}
	if event.Type != eventContentBlockDelta {
		return "", false
	}
	if event.Delta.Text == "" {
		return "", false
	}
	return event.Delta.Text, true
}

// mustMarshal serializes the fixed key-probe body. The input is a static
// struct, so marshaling cannot fail at runtime.
func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
