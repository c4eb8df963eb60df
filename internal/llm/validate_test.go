package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-video-mapping",
		Description: "A node mapping",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"node_id":   map[string]any{"type": "string"},
				"relevance": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"kind":      map[string]any{"type": "string", "enum": []any{"primary", "secondary"}},
				"timestamp": map[string]any{"type": []any{"string", "null"}},
			},
			"required": []any{"node_id", "relevance"},
		},
	}
}

func asInvalid(t *testing.T, err error) *ErrInvalidResponse {
	t.Helper()
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
	return invErr
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"node_id":"n1","relevance":80,"kind":"primary","timestamp":"03:15"}`)
	if err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_NullableField(t *testing.T) {
	raw := json.RawMessage(`{"node_id":"n1","relevance":80,"timestamp":null}`)
	if err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"node_id":"n1"}`)
	invErr := asInvalid(t, validateResponse(testSchema(), raw))
	if invErr.Kind != SchemaMismatch {
		t.Fatalf("expected SchemaMismatch, got %v", invErr.Kind)
	}
	if len(invErr.Issues) != 1 || !strings.Contains(invErr.Issues[0], "relevance") {
		t.Fatalf("expected one issue naming relevance, got %v", invErr.Issues)
	}
}

func TestValidateResponse_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"node_id":"n1","relevance":140}`)
	invErr := asInvalid(t, validateResponse(testSchema(), raw))
	if len(invErr.Issues) != 1 || !strings.Contains(invErr.Issues[0], "/relevance") {
		t.Fatalf("expected an issue located at /relevance, got %v", invErr.Issues)
	}
}

func TestValidateResponse_MultipleIssuesReportedSeparately(t *testing.T) {
	raw := json.RawMessage(`{"node_id":7,"relevance":"high","kind":"tertiary"}`)
	invErr := asInvalid(t, validateResponse(testSchema(), raw))
	if len(invErr.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(invErr.Issues), invErr.Issues)
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{"node_id": "n1", relevance}`)
	invErr := asInvalid(t, validateResponse(testSchema(), raw))
	if invErr.Kind != InvalidJSON {
		t.Fatalf("expected InvalidJSON, got %v", invErr.Kind)
	}
	if string(invErr.Content) != string(raw) {
		t.Fatalf("expected raw content to be preserved, got %s", invErr.Content)
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	invErr := asInvalid(t, validateResponse(testSchema(), json.RawMessage(``)))
	if invErr.Kind != InvalidJSON {
		t.Fatalf("expected InvalidJSON, got %v", invErr.Kind)
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("expected nil for nil schema, got: %v", err)
	}
}

func TestValidateResponse_CheckRunsAfterSchema(t *testing.T) {
	schema := &Schema{
		Name: "test-union",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{"type": "string", "enum": []any{"chat", "tree_generation"}},
				"tree": map[string]any{"type": []any{"object", "null"}},
			},
			"required": []any{"type", "tree"},
		},
		Check: func(raw json.RawMessage) []string {
			var v struct {
				Type string          `json:"type"`
				Tree json.RawMessage `json:"tree"`
			}
			_ = json.Unmarshal(raw, &v)
			if v.Type == "tree_generation" && (len(v.Tree) == 0 || string(v.Tree) == "null") {
				return []string{"tree is required when type is tree_generation"}
			}
			return nil
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"type":"chat","tree":null}`)); err != nil {
		t.Fatalf("expected chat without tree to pass, got: %v", err)
	}

	invErr := asInvalid(t, validateResponse(schema, json.RawMessage(`{"type":"tree_generation","tree":null}`)))
	if invErr.Kind != SchemaMismatch {
		t.Fatalf("expected SchemaMismatch, got %v", invErr.Kind)
	}
	if len(invErr.Issues) != 1 || invErr.Issues[0] != "tree is required when type is tree_generation" {
		t.Fatalf("unexpected issues %v", invErr.Issues)
	}
}

func TestErrRetriesExhausted_Messages(t *testing.T) {
	jsonErr := &ErrRetriesExhausted{Attempts: 3, Last: &ErrInvalidResponse{Kind: InvalidJSON}}
	if jsonErr.Error() != "AI returned invalid JSON after 3 attempts" {
		t.Fatalf("unexpected message %q", jsonErr.Error())
	}

	schemaErr := &ErrRetriesExhausted{Attempts: 3, Last: &ErrInvalidResponse{
		Kind:   SchemaMismatch,
		Issues: []string{"a", "b"},
	}}
	if schemaErr.Error() != "AI response validation failed after 3 attempts: a; b" {
		t.Fatalf("unexpected message %q", schemaErr.Error())
	}
}
