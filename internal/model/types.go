// Package model provides the chat-completion client for OpenAI-compatible
// provider endpoints.
package model

import (
	"encoding/json"
	"time"
)

// Role constants for chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseSchema declares a structured JSON response format on a request.
type ResponseSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// Request represents one chat-completion request.
type Request struct {
	Messages    []Message
	Temperature float64
	// Schema, when set, is declared on the wire as a json_schema response
	// format; the raw JSON string comes back uninterpreted in Content.
	Schema *ResponseSchema
}

// Completion is the parsed result of a chat-completion call.
type Completion struct {
	ID         string
	Model      string
	Content    string
	TokensUsed int
	// Raw preserves the upstream response body for callers that need the
	// full completion object.
	Raw json.RawMessage
}

// Config configures a chat client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// chatResponse mirrors the OpenAI-compatible wire format.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
