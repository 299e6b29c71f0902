// Package extract orchestrates LLM-based field extraction over assembled
// documents: batching requested keys, bounding concurrent model calls, and
// merging per-batch outcomes into one complete result map.
package extract

// SourceLocation names where in the document set a value was found.
type SourceLocation struct {
	PDFFilename string `json:"pdf_filename"`
	PageNumbers []int  `json:"page_numbers"`
}

// KeyResult is the structured outcome for one requested key. A nil *KeyResult
// in the merged map is the uniform "could not be determined" signal, whether
// the cause was a failed batch call, a missing item in the model response, or
// genuine absence from the documents.
type KeyResult struct {
	// KeyValue is the extracted value, or nil when not found.
	KeyValue *string `json:"key_value"`

	// SourceLocations lists the documents and pages supporting the value.
	SourceLocations []SourceLocation `json:"source_locations"`

	// Description explains where and how the value was found.
	Description string `json:"description"`

	// MatchedLineIDs are the line_id/cell_id markers supporting the value.
	// Required whenever KeyValue is non-nil; they drive source highlighting.
	MatchedLineIDs []string `json:"matched_line_ids"`
}

// multiKeyItem pairs a key name with its result in the model's structured
// response.
type multiKeyItem struct {
	KeyName string     `json:"key_name"`
	Result  *KeyResult `json:"result"`
}

// multiKeyResponse is the expected shape of a batch extraction response:
// one item per requested key.
type multiKeyResponse struct {
	Items []multiKeyItem `json:"items"`
}

// ChatMessage is one turn of Q&A conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ProductTypeResult classifies the instrument transformer type described by
// a document set.
type ProductTypeResult struct {
	ProductType string  `json:"product_type"` // Stromwandler, Spannungswandler, Kombiwandler
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence"`
}

// CoreWindingResult reports the maximum core and winding numbers referenced
// in a specification.
type CoreWindingResult struct {
	MaxCoreNumber    int    `json:"max_core_number"`
	MaxWindingNumber int    `json:"max_winding_number"`
	Explanation      string `json:"explanation"`
}

// SpecificationChange is one detected difference between two document
// versions.
type SpecificationChange struct {
	ChangeType    string  `json:"change_type"` // added, removed, modified
	Specification string  `json:"specification"`
	OldValue      *string `json:"old_value"`
	NewValue      *string `json:"new_value"`
	BasePages     []int   `json:"base_pages"`
	NewPages      []int   `json:"new_pages"`
	Explanation   string  `json:"explanation"`
}

// ComparisonResult summarizes the differences between two document versions.
type ComparisonResult struct {
	Summary      string                `json:"summary"`
	TotalChanges int                   `json:"total_changes"`
	Changes      []SpecificationChange `json:"changes"`
}
