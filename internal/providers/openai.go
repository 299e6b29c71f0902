package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIClientName = "openai"

	defaultOpenAIModel   = "gpt-4.1"
	defaultAzureVersion  = "2025-01-01-preview"
	defaultRequestLimit  = 150 // requests per minute
	defaultMaxRetries    = 3
	defaultRetryDelay    = 2 * time.Second
	defaultChatTimeout   = 5 * time.Minute
	defaultStreamTimeout = 10 * time.Minute
)

// OpenAIConfig holds configuration for the OpenAI (or Azure OpenAI) client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // Optional; Azure endpoints are detected by host
	Model      string // Default model for requests that don't set one
	APIVersion string // Azure api-version query parameter

	RateLimit  int           // Requests per minute
	MaxRetries int           // Transport retry attempts
	RetryDelay time.Duration // Base backoff delay

	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
// Safe for concurrent use; all in-flight batch requests share one client
// and one rate limiter.
type OpenAIClient struct {
	client     openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	limiter    *RateLimiter
	logger     *slog.Logger
}

// NewOpenAIClient creates a new OpenAI chat client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRequestLimit
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &OpenAIClient{
		client:     openai.NewClient(cfg.requestOptions()...),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    NewRateLimiter(cfg.RateLimit),
		logger:     cfg.Logger,
	}
}

// requestOptions builds SDK options, handling Azure endpoints which use an
// Api-Key header and api-version query parameter instead of a bearer token.
func (cfg OpenAIConfig) requestOptions() []option.RequestOption {
	var opts []option.RequestOption

	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	if cfg.BaseURL == "" {
		if cfg.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		}
		return opts
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/"
	opts = append(opts, option.WithBaseURL(url))

	if strings.Contains(url, "openai.azure.com") || strings.Contains(url, "cognitiveservices.azure.com") {
		version := cfg.APIVersion
		if version == "" {
			version = defaultAzureVersion
		}
		opts = append(opts, option.WithQueryAdd("api-version", version))
		if cfg.APIKey != "" {
			opts = append(opts, option.WithHeader("Api-Key", cfg.APIKey))
		}
		return opts
	}

	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return opts
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIClientName
}

// Chat sends a chat completion request, honoring the shared rate limit and
// retrying transport failures with backoff.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	result := &ChatResult{
		Provider:  OpenAIClientName,
		ModelUsed: c.resolveModel(req),
		RequestID: req.RequestID,
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := c.buildParams(req)

	var completion *openai.ChatCompletion
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			result.Attempts++
			var callErr error
			completion, callErr = c.client.Chat.Completions.New(ctx, params)
			return callErr
		},
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)

	result.ExecutionTime = time.Since(start)

	if err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("chat completion failed after %d attempts: %w", result.Attempts, err)
	}
	if len(completion.Choices) == 0 {
		result.ErrorMessage = "no choices in response"
		return result, fmt.Errorf("chat completion returned no choices")
	}

	result.Content = completion.Choices[0].Message.Content
	result.PromptTokens = int(completion.Usage.PromptTokens)
	result.CompletionTokens = int(completion.Usage.CompletionTokens)
	result.TotalTokens = int(completion.Usage.TotalTokens)

	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(result.Content)
		if err != nil {
			result.ErrorMessage = err.Error()
			return result, fmt.Errorf("structured output parse failed: %w", err)
		}
		if err := validateStructuredJSON(req.ResponseFormat.Schema, parsed); err != nil {
			result.ErrorMessage = err.Error()
			return result, fmt.Errorf("structured output validation failed: %w", err)
		}
		result.ParsedJSON = parsed
	}

	result.Success = true
	return result, nil
}

// ChatStream opens a streaming chat completion. Chunks are delivered on the
// returned channel in arrival order; the channel is closed when the stream
// ends. Streaming requests are not retried: a consumer may already have seen
// partial output.
func (c *OpenAIClient) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	params := c.buildParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)

	out := make(chan StreamChunk)
	go func() {
		defer cancel()
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case out <- StreamChunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case out <- StreamChunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (c *OpenAIClient) resolveModel(req *ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func (c *OpenAIClient) buildParams(req *ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.resolveModel(req)),
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if rf := req.ResponseFormat; rf != nil {
		schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   rf.Name,
			Schema: rf.Schema,
			Strict: openai.Bool(rf.Strict),
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schema,
			},
		}
	}

	return params
}
