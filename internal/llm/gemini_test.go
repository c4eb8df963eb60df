package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.5-flash-lite", "gemini-2.5-flash-lite"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label":     map[string]any{"type": "string"},
			"depth":     map[string]any{"type": "integer", "minimum": 0},
			"status":    map[string]any{"type": "string", "enum": []any{"chat", "tree_generation"}},
			"relevance": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"parent":    map[string]any{"type": []any{"string", "null"}},
			"nodes": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
		},
		"required": []any{"label", "depth"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 6 {
		t.Fatalf("expected 6 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["label"].Type != "STRING" {
		t.Fatalf("expected STRING for label, got %s", schema.Properties["label"].Type)
	}
	if schema.Properties["depth"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for depth, got %s", schema.Properties["depth"].Type)
	}
	if len(schema.Properties["status"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(schema.Properties["status"].Enum))
	}
	rel := schema.Properties["relevance"]
	if rel.Minimum == nil || *rel.Minimum != 0 || rel.Maximum == nil || *rel.Maximum != 100 {
		t.Fatalf("expected relevance bounds 0..100, got %v..%v", rel.Minimum, rel.Maximum)
	}
	if schema.Properties["nodes"].Items.Type != "STRING" {
		t.Fatalf("expected STRING for nodes items, got %s", schema.Properties["nodes"].Items.Type)
	}
	if mi := schema.Properties["nodes"].MinItems; mi == nil || *mi != 1 {
		t.Fatalf("expected minItems 1, got %v", mi)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiSchema_NullableUnion(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{"type": []any{"string", "null"}})
	if schema.Type != "STRING" {
		t.Fatalf("expected STRING, got %s", schema.Type)
	}
	if schema.Nullable == nil || !*schema.Nullable {
		t.Fatal("expected nullable schema")
	}
}

func TestBuildGeminiSchema_PropertyOrdering(t *testing.T) {
	strict := buildGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "minLength": 1},
			"type":    map[string]any{"type": "string"},
		},
		"required": []any{"type", "message"},
	})
	if len(strict.PropertyOrdering) != 2 || strict.PropertyOrdering[0] != "type" {
		t.Fatalf("expected ordering to follow required, got %v", strict.PropertyOrdering)
	}
	if ml := strict.Properties["message"].MinLength; ml == nil || *ml != 1 {
		t.Fatalf("expected minLength 1, got %v", ml)
	}

	loose := buildGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{"type": "string"},
		},
		"required": []any{"a"},
	})
	if loose.PropertyOrdering != nil {
		t.Fatalf("partial ordering must not be sent, got %v", loose.PropertyOrdering)
	}
}

func geminiResult(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: reason,
		}},
	}
}

func TestGeminiContent(t *testing.T) {
	content, err := geminiContent(geminiResult(` {"knowledge_text":"x"} `, genai.FinishReasonStop))
	if err != nil || string(content) != `{"knowledge_text":"x"}` {
		t.Fatalf("unexpected result %s, %v", content, err)
	}

	_, err = geminiContent(geminiResult(`{"knowledge_text":"tr`, genai.FinishReasonMaxTokens))
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) || string(mt.Content) != `{"knowledge_text":"tr` {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}

	_, err = geminiContent(geminiResult(``, genai.FinishReasonSafety))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse for filtered candidate, got %v", err)
	}

	_, err = geminiContent(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse for blocked prompt, got %v", err)
	}

	_, err = geminiContent(&genai.GenerateContentResponse{})
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse without candidates, got %v", err)
	}
}
