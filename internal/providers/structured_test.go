package providers

import (
	"strings"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "clean object",
			content: `{"a": 1}`,
			want:    `{"a":1}`,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a":1}`,
		},
		{
			name:    "fence without language tag",
			content: "```\n[1, 2]\n```",
			want:    `[1,2]`,
		},
		{
			name:    "prose around the object",
			content: `Here is the result: {"key": "value"} hope that helps`,
			want:    `{"key":"value"}`,
		},
		{
			name:    "empty content",
			content: "   ",
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "I could not produce structured output",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("parsed %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateStructuredJSON(t *testing.T) {
	schema := map[string]any{
		"type":                 "object",
		"required":             []any{"name"},
		"additionalProperties": false,
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}

	t.Run("conforming payload", func(t *testing.T) {
		if err := validateStructuredJSON(schema, []byte(`{"name":"ok"}`)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		err := validateStructuredJSON(schema, []byte(`{}`))
		if err == nil || !strings.Contains(err.Error(), "does not match schema") {
			t.Errorf("expected schema violation, got %v", err)
		}
	})

	t.Run("empty schema skips validation", func(t *testing.T) {
		if err := validateStructuredJSON(nil, []byte(`{"anything":true}`)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
