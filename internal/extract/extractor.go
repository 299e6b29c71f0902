package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tracedoc/tracedoc/internal/pdfx"
	"github.com/tracedoc/tracedoc/internal/providers"
)

var (
	// ErrInvalidBatchSize is returned when a request carries a batch size
	// below 1. This is a caller mistake, rejected before any model call.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidConcurrency is returned when the concurrency ceiling is
	// below 1.
	ErrInvalidConcurrency = errors.New("max concurrent batches must be positive")

	// ErrNoDocuments is returned when keys are requested against an empty
	// document set.
	ErrNoDocuments = errors.New("no documents provided")
)

// Extractor answers questions about assembled documents and extracts named
// specification keys from them. It is constructed once with its clients and
// passed by reference; it holds no per-request state.
type Extractor struct {
	client   providers.LLMClient // accuracy-critical: key extraction, comparison
	qaClient providers.LLMClient // speed-critical: chat, detection
	logger   *slog.Logger
}

// Config configures an Extractor.
type Config struct {
	// Client handles extraction and comparison calls.
	Client providers.LLMClient
	// QAClient handles chat and detection calls. Defaults to Client.
	QAClient providers.LLMClient
	Logger   *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.QAClient == nil {
		cfg.QAClient = cfg.Client
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		client:   cfg.Client,
		qaClient: cfg.QAClient,
		logger:   cfg.Logger,
	}
}

// KeyExtractionRequest asks for a set of named keys over a document set.
type KeyExtractionRequest struct {
	KeyNames  []string
	Documents []*pdfx.Document

	// BatchSize is the number of keys per model call.
	BatchSize int

	// MaxConcurrent caps how many batch calls are in flight at once.
	// Deployments with tight rate limits run at 1; generous ones at 5.
	MaxConcurrent int

	// Language for extracted values and descriptions ("en" or "de").
	Language string
}

// ExtractKeys extracts every requested key using batched concurrent model
// calls and returns a map with exactly one entry per requested key. A nil
// entry means the key could not be determined, whether because its batch
// call failed or because the documents don't contain it; partial success is
// never surfaced as an error.
func (e *Extractor) ExtractKeys(ctx context.Context, req KeyExtractionRequest) (map[string]*KeyResult, error) {
	if len(req.KeyNames) == 0 {
		return map[string]*KeyResult{}, nil
	}
	if req.BatchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	if req.MaxConcurrent <= 0 {
		return nil, ErrInvalidConcurrency
	}
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	start := time.Now()
	batches := planBatches(req.KeyNames, req.BatchSize)
	docContext := buildDocumentContext(req.Documents)

	e.logger.Info("starting batched extraction",
		"keys", len(req.KeyNames),
		"batches", len(batches),
		"batch_size", req.BatchSize,
		"max_concurrent", req.MaxConcurrent,
		"documents", len(req.Documents))

	// Counting semaphore: all batches are scheduled, at most MaxConcurrent
	// awaiting a model response at once.
	sem := make(chan struct{}, req.MaxConcurrent)
	outcomes := make([]map[string]*KeyResult, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			outcomes[i] = e.extractBatch(ctx, batch, docContext, req.Language)
		}(i, batch)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := mergeOutcomes(batches, outcomes)

	e.logger.Info("completed batched extraction",
		"keys", len(req.KeyNames),
		"batches", len(batches),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return merged, nil
}

// extractBatch runs one model call for a batch of keys. It never fails:
// any error maps every key in the batch to nil, isolating the failure from
// other batches.
func (e *Extractor) extractBatch(ctx context.Context, keyNames []string, documentContext, language string) map[string]*KeyResult {
	outcome := make(map[string]*KeyResult, len(keyNames))

	prompt, err := buildMultiKeyPrompt(keyNames, documentContext, language)
	if err != nil {
		e.logger.Error("failed to build batch prompt", "keys", keyNames, "error", err)
		return nilOutcome(keyNames)
	}

	start := time.Now()
	result, err := e.client.Chat(ctx, &providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Temperature: zeroTemperature(),
		ResponseFormat: &providers.ResponseFormat{
			Name:   "multi_key_extraction",
			Schema: multiKeySchema,
			Strict: true,
		},
	})
	if err != nil {
		e.logger.Error("batch extraction call failed",
			"keys", len(keyNames),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"error", err)
		return nilOutcome(keyNames)
	}

	var parsed multiKeyResponse
	if err := json.Unmarshal(result.ParsedJSON, &parsed); err != nil {
		e.logger.Error("batch extraction response unmarshal failed", "error", err)
		return nilOutcome(keyNames)
	}

	byName := make(map[string]*KeyResult, len(parsed.Items))
	for _, item := range parsed.Items {
		byName[item.KeyName] = item.Result
	}

	// Structured generation sometimes drops a requested item; force such
	// keys to nil so they are never silently missing from the outcome.
	missing := 0
	for _, name := range keyNames {
		r, ok := byName[name]
		if !ok {
			missing++
			r = nil
		}
		outcome[name] = r
	}
	if missing > 0 {
		e.logger.Warn("model response omitted requested keys, forcing null",
			"missing", missing, "batch", len(keyNames))
	}

	e.logger.Debug("batch extraction succeeded",
		"keys", len(keyNames),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"tokens", result.TotalTokens)

	return outcome
}

// mergeOutcomes unions the per-batch maps. Each key appears in exactly one
// batch and each batch outcome covers its whole batch, so the union covers
// every requested key exactly once. A batch whose goroutine never ran
// (cancelled before acquiring the semaphore) contributes nils.
func mergeOutcomes(batches [][]string, outcomes []map[string]*KeyResult) map[string]*KeyResult {
	merged := make(map[string]*KeyResult)
	for i, batch := range batches {
		if outcomes[i] == nil {
			for _, name := range batch {
				merged[name] = nil
			}
			continue
		}
		for name, r := range outcomes[i] {
			merged[name] = r
		}
	}
	return merged
}

func nilOutcome(keyNames []string) map[string]*KeyResult {
	outcome := make(map[string]*KeyResult, len(keyNames))
	for _, name := range keyNames {
		outcome[name] = nil
	}
	return outcome
}

// QuestionRequest asks a free-form question about a document set.
type QuestionRequest struct {
	Question  string
	Documents []*pdfx.Document
	History   []ChatMessage
}

// AnswerQuestion streams the answer to a free-form question. Chunks arrive
// in order on the returned channel; the channel closes when the answer is
// complete. The call is finite and not restartable.
//
// When the history already opens with a system message the document context
// it carries is reused; otherwise a fresh system message is built from the
// request's documents.
func (e *Extractor) AnswerQuestion(ctx context.Context, req QuestionRequest) (<-chan providers.StreamChunk, error) {
	var messages []providers.Message

	history := req.History
	if len(history) > 0 && history[0].Role == "system" {
		for _, m := range history {
			messages = append(messages, providers.Message{Role: m.Role, Content: m.Content})
		}
	} else {
		system, err := buildQASystemPrompt(buildDocumentContext(req.Documents))
		if err != nil {
			return nil, err
		}
		messages = append(messages, providers.Message{Role: "system", Content: system})
		for _, m := range history {
			messages = append(messages, providers.Message{Role: m.Role, Content: m.Content})
		}
	}

	messages = append(messages, providers.Message{Role: "user", Content: req.Question})

	e.logger.Info("answering question", "documents", len(req.Documents), "history", len(req.History))

	return e.qaClient.ChatStream(ctx, &providers.ChatRequest{Messages: messages})
}

// DetectProductType classifies the document set as one instrument
// transformer product type.
func (e *Extractor) DetectProductType(ctx context.Context, documents []*pdfx.Document) (*ProductTypeResult, error) {
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	prompt, err := buildProductTypePrompt(buildDocumentContext(documents))
	if err != nil {
		return nil, err
	}

	var out ProductTypeResult
	if err := e.structuredCall(ctx, e.qaClient, prompt, "product_type_detection", productTypeSchema, &out); err != nil {
		return nil, fmt.Errorf("product type detection failed: %w", err)
	}

	e.logger.Info("detected product type", "product_type", out.ProductType, "confidence", out.Confidence)
	return &out, nil
}

// DetectCoreWindingCount finds the maximum core/winding numbers for the
// given product type.
func (e *Extractor) DetectCoreWindingCount(ctx context.Context, documents []*pdfx.Document, productType string) (*CoreWindingResult, error) {
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	prompt, err := buildCoreWindingPrompt(productType, buildDocumentContext(documents))
	if err != nil {
		return nil, err
	}

	var out CoreWindingResult
	if err := e.structuredCall(ctx, e.qaClient, prompt, "core_winding_count", coreWindingSchema, &out); err != nil {
		return nil, fmt.Errorf("core/winding detection failed: %w", err)
	}

	e.logger.Info("detected core/winding count",
		"product_type", productType,
		"max_core", out.MaxCoreNumber,
		"max_winding", out.MaxWindingNumber)
	return &out, nil
}

// CompareDocuments diffs two versions of a specification.
func (e *Extractor) CompareDocuments(ctx context.Context, base, updated *pdfx.Document, additionalContext string) (*ComparisonResult, error) {
	if base == nil || updated == nil {
		return nil, ErrNoDocuments
	}

	prompt, err := buildComparisonPrompt(
		base.Filename, base.FormattedText,
		updated.Filename, updated.FormattedText,
		additionalContext)
	if err != nil {
		return nil, err
	}

	var out ComparisonResult
	if err := e.structuredCall(ctx, e.client, prompt, "pdf_comparison", comparisonSchema, &out); err != nil {
		return nil, fmt.Errorf("document comparison failed: %w", err)
	}

	e.logger.Info("compared documents",
		"base", base.Filename, "new", updated.Filename, "changes", out.TotalChanges)
	return &out, nil
}

// structuredCall runs one structured-output call and unmarshals the result.
func (e *Extractor) structuredCall(ctx context.Context, client providers.LLMClient, prompt, name string, schema map[string]any, out any) error {
	result, err := client.Chat(ctx, &providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Temperature: zeroTemperature(),
		ResponseFormat: &providers.ResponseFormat{
			Name:   name,
			Schema: schema,
			Strict: true,
		},
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.ParsedJSON, out)
}

// buildDocumentContext concatenates every document's formatted text. Each
// document's own banner is the only separator.
func buildDocumentContext(documents []*pdfx.Document) string {
	var sb strings.Builder
	for _, doc := range documents {
		sb.WriteString(doc.FormattedText)
	}
	return sb.String()
}

func zeroTemperature() *float64 {
	t := 0.0
	return &t
}
