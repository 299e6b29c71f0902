package extract

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed multi_key.tmpl
var multiKeyPromptTmpl string

//go:embed qa_system.tmpl
var qaSystemPromptTmpl string

//go:embed comparison.tmpl
var comparisonPromptTmpl string

//go:embed product_type.tmpl
var productTypePromptTmpl string

//go:embed core_winding.tmpl
var coreWindingPromptTmpl string

var (
	multiKeyTemplate    = template.Must(template.New("multi_key").Parse(multiKeyPromptTmpl))
	qaSystemTemplate    = template.Must(template.New("qa_system").Parse(qaSystemPromptTmpl))
	comparisonTemplate  = template.Must(template.New("comparison").Parse(comparisonPromptTmpl))
	productTypeTemplate = template.Must(template.New("product_type").Parse(productTypePromptTmpl))
	coreWindingTemplate = template.Must(template.New("core_winding").Parse(coreWindingPromptTmpl))
)

// buildMultiKeyPrompt renders the batch extraction prompt for one batch of
// keys over the full document context.
func buildMultiKeyPrompt(keyNames []string, documentContents, language string) (string, error) {
	keyLines := make([]string, 0, len(keyNames))
	for _, name := range keyNames {
		keyLines = append(keyLines, "- "+name)
	}

	var metadataLines []string
	for _, name := range keyNames {
		if hint := FormatKeyMetadata(name); hint != "" {
			metadataLines = append(metadataLines, fmt.Sprintf("- %s: %s", name, hint))
		}
	}

	notFoundText := "Not found"
	if language == "de" {
		notFoundText = "Nicht gefunden"
	}

	data := struct {
		KeysSection        string
		KeyMetadataSection string
		DocumentContents   string
		Language           string
		NotFoundText       string
	}{
		KeysSection:        strings.Join(keyLines, "\n"),
		KeyMetadataSection: strings.Join(metadataLines, "\n"),
		DocumentContents:   documentContents,
		Language:           languageName(language),
		NotFoundText:       notFoundText,
	}

	var buf bytes.Buffer
	if err := multiKeyTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return buf.String(), nil
}

// buildQASystemPrompt renders the Q&A system message carrying the document
// context.
func buildQASystemPrompt(documentContents string) (string, error) {
	var buf bytes.Buffer
	data := struct{ DocumentContents string }{DocumentContents: documentContents}
	if err := qaSystemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render QA system prompt: %w", err)
	}
	return buf.String(), nil
}

func buildComparisonPrompt(baseFilename, baseContext, newFilename, newContext, additionalContext string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		AdditionalContext string
		BaseFilename      string
		BaseContext       string
		NewFilename       string
		NewContext        string
	}{
		AdditionalContext: additionalContext,
		BaseFilename:      baseFilename,
		BaseContext:       baseContext,
		NewFilename:       newFilename,
		NewContext:        newContext,
	}
	if err := comparisonTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render comparison prompt: %w", err)
	}
	return buf.String(), nil
}

func buildProductTypePrompt(documentContents string) (string, error) {
	var buf bytes.Buffer
	data := struct{ DocumentContents string }{DocumentContents: documentContents}
	if err := productTypeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render product type prompt: %w", err)
	}
	return buf.String(), nil
}

func buildCoreWindingPrompt(productType, documentContents string) (string, error) {
	var instructions string
	switch productType {
	case "Stromwandler":
		instructions = `Looking for Cores (Kern):
- Search for "Kern 1", "Kern 2", up to "Kern 7"
- Check parameters like "Genauigkeitsklasse Kern X" or "Nennstrom primaer (A) Kern X"
- Set max_core_number to the highest Kern number found
- Set max_winding_number to 0 (not applicable)`
	case "Spannungswandler":
		instructions = `Looking for Windings (Wicklung):
- Search for "Wicklung 1", "Wicklung 2", up to "Wicklung 5"
- Check parameters like "Genauigkeitsklasse Wicklung X" or "Nennspannung primaer (V) Wicklung X"
- Set max_winding_number to the highest Wicklung number found
- Set max_core_number to 0 (not applicable)`
	default: // Kombiwandler
		instructions = `Looking for both Cores AND Windings:
- Search for "Kern 1" through "Kern 7" and "Wicklung 1" through "Wicklung 5"
- Check core parameters like "Genauigkeitsklasse Kern X" and winding parameters like "Genauigkeitsklasse Wicklung X"
- Return both max_core_number and max_winding_number`
	}

	var buf bytes.Buffer
	data := struct {
		ProductType        string
		SearchInstructions string
		DocumentContents   string
	}{
		ProductType:        productType,
		SearchInstructions: instructions,
		DocumentContents:   documentContents,
	}
	if err := coreWindingTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render core/winding prompt: %w", err)
	}
	return buf.String(), nil
}

func languageName(code string) string {
	switch code {
	case "de":
		return "German"
	default:
		return "English"
	}
}
