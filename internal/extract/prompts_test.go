package extract

import (
	"strings"
	"testing"
)

func TestBuildMultiKeyPrompt(t *testing.T) {
	prompt, err := buildMultiKeyPrompt(
		[]string{"Kunde", "SomeCustomKey"},
		"[line_id: 1_0] Kunde: ACME\n",
		"en",
	)
	if err != nil {
		t.Fatalf("buildMultiKeyPrompt failed: %v", err)
	}

	if !strings.Contains(prompt, "- Kunde") || !strings.Contains(prompt, "- SomeCustomKey") {
		t.Error("prompt missing requested key list")
	}
	// Known keys carry their metadata hint; unknown keys don't.
	if !strings.Contains(prompt, "English: Customer") {
		t.Error("prompt missing metadata hint for known key")
	}
	if strings.Contains(prompt, "SomeCustomKey:") && strings.Contains(prompt, "SomeCustomKey: English") {
		t.Error("unexpected metadata for unknown key")
	}
	if !strings.Contains(prompt, "[line_id: 1_0] Kunde: ACME") {
		t.Error("prompt missing document context")
	}
	if !strings.Contains(prompt, "Not found") {
		t.Error("prompt missing not-found text")
	}
}

func TestBuildMultiKeyPromptGerman(t *testing.T) {
	prompt, err := buildMultiKeyPrompt([]string{"Kunde"}, "ctx", "de")
	if err != nil {
		t.Fatalf("buildMultiKeyPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "Nicht gefunden") {
		t.Error("German prompt missing localized not-found text")
	}
	if !strings.Contains(prompt, "German") {
		t.Error("German prompt missing language name")
	}
}

func TestBuildCoreWindingPromptPerProductType(t *testing.T) {
	tests := []struct {
		productType string
		want        string
		dontWant    string
	}{
		{"Stromwandler", "Kern 1", "Wicklung 1"},
		{"Spannungswandler", "Wicklung 1", "Kern 1"},
		{"Kombiwandler", "both Cores AND Windings", ""},
	}

	for _, tt := range tests {
		t.Run(tt.productType, func(t *testing.T) {
			prompt, err := buildCoreWindingPrompt(tt.productType, "ctx")
			if err != nil {
				t.Fatalf("buildCoreWindingPrompt failed: %v", err)
			}
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt missing %q", tt.want)
			}
			if tt.dontWant != "" && strings.Contains(prompt, tt.dontWant) {
				t.Errorf("prompt should not mention %q", tt.dontWant)
			}
		})
	}
}

func TestBuildQASystemPromptCarriesContext(t *testing.T) {
	prompt, err := buildQASystemPrompt("[line_id: 1_0] Voltage: 20kV")
	if err != nil {
		t.Fatalf("buildQASystemPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "[line_id: 1_0] Voltage: 20kV") {
		t.Error("system prompt missing document context")
	}
}

func TestKeyMetadata(t *testing.T) {
	m, ok := MetadataFor("Isoliermedium")
	if !ok {
		t.Fatal("expected metadata for Isoliermedium")
	}
	if m.Category != CategoryMainData {
		t.Errorf("category = %q, want %q", m.Category, CategoryMainData)
	}

	if _, ok := MetadataFor("Unbekannt"); ok {
		t.Error("unexpected metadata for unknown key")
	}

	if FormatKeyMetadata("Unbekannt") != "" {
		t.Error("unknown key should format to empty hint")
	}
	hint := FormatKeyMetadata("Kunde")
	if !strings.Contains(hint, "English: Customer") || !strings.Contains(hint, "Category: PROJECT INFORMATION") {
		t.Errorf("unexpected hint: %q", hint)
	}

	keys := KnownKeys()
	if len(keys) < 15 {
		t.Errorf("expected the full key set, got %d keys", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Errorf("keys not sorted at %d: %q >= %q", i, keys[i-1], keys[i])
		}
	}
}
