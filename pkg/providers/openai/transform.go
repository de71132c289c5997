package openai

import (
	"encoding/json"
	"errors"

	"keybridge-hq/keybridge/pkg/providers"
)

// OpenAI API wire types

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model     string                  `json:"model"`
	Messages  []providers.ChatMessage `json:"messages"`
	MaxTokens int                     `json:"max_tokens,omitempty"`
	Stream    bool                    `json:"stream,omitempty"`
}

// chatResponse is the non-streaming chat completions response body.
type chatResponse struct {
	Model   string          `json:"model"`
	Choices []choice        `json:"choices"`
	Usage   json.RawMessage `json:"usage"`
}

type choice struct {
	Message message `json:"message"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamChunk is one SSE data payload in a streaming response.
type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta streamDelta `json:"delta"`
}

type streamDelta struct {
	Content string `json:"content"`
}

// transformRequest builds the provider wire request. Messages are
// forwarded unmodified.
func transformRequest(req *providers.ChatRequest, stream bool) *chatRequest {
	return &chatRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
		Stream:    stream,
	}
}

// normalizeResponse maps a provider response body onto the common result
// shape: content from the first choice's message, the provider's reported
// model, and the usage object verbatim.
func normalizeResponse(body []byte) (*providers.ChatResult, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &providers.ParseError{
			Provider:    providers.NameOpenAI,
			RawResponse: string(body),
			Cause:       err,
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &providers.ParseError{
			Provider:    providers.NameOpenAI,
			RawResponse: string(body),
			Cause:       errors.New("no choices in response"),
		}
	}

	return &providers.ChatResult{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}

// extractDelta pulls the incremental content from one stream payload.
// Malformed payloads and chunks without a content delta (role preludes,
// finish chunks) report false and are dropped by the relay.
func extractDelta(payload []byte) (string, bool) {
	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	if content == "" {
		return "", false
	}
	return content, true
}
