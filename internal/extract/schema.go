package extract

// JSON schemas for structured model output. These are the bare schema
// documents handed to providers.ResponseFormat; the provider layer wraps
// them for the wire and validates responses against them.

var multiKeySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type":        "array",
			"description": "One entry per requested key, in any order",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key_name": map[string]any{
						"type":        "string",
						"description": "The requested key name, copied exactly",
					},
					"result": map[string]any{
						"type": []string{"object", "null"},
						"properties": map[string]any{
							"key_value": map[string]any{
								"type":        []string{"string", "null"},
								"description": "The extracted value, or null if not found",
							},
							"source_locations": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"pdf_filename": map[string]any{"type": "string"},
										"page_numbers": map[string]any{
											"type":  "array",
											"items": map[string]any{"type": "integer"},
										},
									},
									"required":             []string{"pdf_filename", "page_numbers"},
									"additionalProperties": false,
								},
							},
							"description": map[string]any{
								"type":        "string",
								"description": "Where and how the value was found",
							},
							"matched_line_ids": map[string]any{
								"type":        "array",
								"items":       map[string]any{"type": "string"},
								"description": "line_id/cell_id markers supporting the value; required when key_value is non-null",
							},
						},
						"required":             []string{"key_value", "source_locations", "description", "matched_line_ids"},
						"additionalProperties": false,
					},
				},
				"required":             []string{"key_name", "result"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"items"},
	"additionalProperties": false,
}

var productTypeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"product_type": map[string]any{
			"type": "string",
			"enum": []string{"Stromwandler", "Spannungswandler", "Kombiwandler"},
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "Confidence score 0.0-1.0",
		},
		"evidence": map[string]any{
			"type":        "string",
			"description": "The document evidence the classification is based on",
		},
	},
	"required":             []string{"product_type", "confidence", "evidence"},
	"additionalProperties": false,
}

var coreWindingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"max_core_number": map[string]any{
			"type":        "integer",
			"description": "Highest core (Kern) number found, 0 if not applicable",
		},
		"max_winding_number": map[string]any{
			"type":        "integer",
			"description": "Highest winding (Wicklung) number found, 0 if not applicable",
		},
		"explanation": map[string]any{"type": "string"},
	},
	"required":             []string{"max_core_number", "max_winding_number", "explanation"},
	"additionalProperties": false,
}

var comparisonSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{"type": "string"},
		"total_changes": map[string]any{
			"type": "integer",
		},
		"changes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"change_type": map[string]any{
						"type": "string",
						"enum": []string{"added", "removed", "modified"},
					},
					"specification": map[string]any{"type": "string"},
					"old_value":     map[string]any{"type": []string{"string", "null"}},
					"new_value":     map[string]any{"type": []string{"string", "null"}},
					"base_pages": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "integer"},
					},
					"new_pages": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "integer"},
					},
					"explanation": map[string]any{"type": "string"},
				},
				"required": []string{
					"change_type", "specification", "old_value", "new_value",
					"base_pages", "new_pages", "explanation",
				},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"summary", "total_changes", "changes"},
	"additionalProperties": false,
}
