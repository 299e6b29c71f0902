package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage
	StreamChunks []string

	// ChatFunc, when set, replaces the canned behavior entirely. Useful for
	// per-request failure injection.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of requests received so far.
func (c *MockClient) RequestCount() int {
	return int(c.requestCount.Load())
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	count := c.requestCount.Add(1)

	if c.ChatFunc != nil {
		return c.ChatFunc(ctx, req)
	}

	start := time.Now()
	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		result.ErrorMessage = "mock client configured to fail"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		result.ErrorMessage = fmt.Sprintf("mock client failed after %d requests", c.FailAfter)
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}

	result.Content = c.ResponseText
	if req.ResponseFormat != nil && len(c.ResponseJSON) > 0 {
		result.Content = string(c.ResponseJSON)
		result.ParsedJSON = c.ResponseJSON
	}
	result.Success = true
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// ChatStream delivers StreamChunks (or ResponseText as one chunk) in order.
func (c *MockClient) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	c.requestCount.Add(1)

	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}

	chunks := c.StreamChunks
	if len(chunks) == 0 {
		chunks = []string{c.ResponseText}
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range chunks {
			select {
			case out <- StreamChunk{Content: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
