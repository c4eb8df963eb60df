package knowledge

import "github.com/abhisek/skilltrail/internal/llm"

// SummarySchema is the short knowledge text response.
var SummarySchema = &llm.Schema{
	Name:        "knowledge-text",
	Description: "Short overview of a skill node",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"knowledge_text": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []any{"knowledge_text"},
		"additionalProperties": false,
	},
}

// DetailedSchema is the long-form knowledge text response.
var DetailedSchema = &llm.Schema{
	Name:        "detailed-knowledge-text",
	Description: "Markdown study text for a skill node",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"detailed_knowledge_text": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []any{"detailed_knowledge_text"},
		"additionalProperties": false,
	},
}

type summaryOutput struct {
	KnowledgeText string `json:"knowledge_text"`
}

type detailedOutput struct {
	DetailedKnowledgeText string `json:"detailed_knowledge_text"`
}
