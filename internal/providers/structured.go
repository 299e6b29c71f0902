package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize structured output: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return ""
	}
	closeChar := "}"
	if trimmed[start] == '[' {
		closeChar = "]"
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// validateStructuredJSON validates parsed JSON against the request schema.
// A response that parses but does not conform is treated as a failed call;
// the orchestrator maps the whole batch to null rather than trusting a
// malformed payload.
func validateStructuredJSON(schema map[string]any, parsed json.RawMessage) error {
	if len(schema) == 0 || len(parsed) == 0 {
		return nil
	}

	schemaRaw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to serialize structured schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaRaw)); err != nil {
		return fmt.Errorf("failed to load structured schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile structured schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}
