// Package providers defines the LLM client boundary used by the extraction
// orchestrator. The orchestrator treats "run this prompt and return a result"
// as an opaque capability; everything provider-specific lives behind the
// LLMClient interface so tests can substitute a mock.
package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the primary interface for chat/completion requests.
// Implementations must be safe for concurrent use: multiple extraction
// batches share one client.
type LLMClient interface {
	// Chat sends a chat completion request and blocks for the full response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// ChatStream sends a chat request and returns the response as an
	// in-order sequence of text chunks. The channel is closed when the
	// stream ends; a terminal error is delivered as the final chunk.
	ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests structured output conforming to a JSON schema.
// Schema is the bare schema document (not a provider wrapper).
type ResponseFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"-"`

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	// Response content
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Set when ResponseFormat was requested

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// StreamChunk is one element of a streamed response. Exactly one of Content
// or Err is set; Err is only ever the final chunk.
type StreamChunk struct {
	Content string
	Err     error
}
