package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-sonnet-4-5"}
}

func anthropicMessage(stop string, texts ...string) map[string]any {
	content := make([]map[string]any, len(texts))
	for i, t := range texts {
		content[i] = map[string]any{"type": "text", "text": t}
	}
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     content,
		"model":       "claude-sonnet-4-5",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestAnthropicProvider_StructuredOutput(t *testing.T) {
	var body map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, anthropicMessage("end_turn",
			`{"knowledge_text":`, `"Closures capture variables."}`))
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "You write study notes.",
		Messages:  []Message{{Role: RoleUser, Content: "Summarize closures."}},
		Schema:    knowledgeSchema(),
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"knowledge_text":"Closures capture variables."}` {
		t.Fatalf("text blocks should be joined, got %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 80 || resp.StopReason != "end" {
		t.Fatalf("unexpected response metadata: %+v", resp)
	}
	if _, ok := body["output_config"]; !ok {
		t.Fatal("schema should be sent as output_config")
	}
	if sys, _ := body["system"].([]any); len(sys) != 1 {
		t.Fatalf("expected one system block, got %v", body["system"])
	}
}

func TestAnthropicProvider_ConversationRoles(t *testing.T) {
	var body struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, anthropicMessage("end_turn", `{}`))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "I want to learn Go"},
			{Role: RoleAssistant, Content: `{"type":"chat"}`},
			{Role: RoleUser, Content: "Yes, build the tree"},
		},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{}
	for _, m := range body.Messages {
		got = append(got, m.Role)
	}
	if len(got) != 3 || got[0] != "user" || got[1] != "assistant" || got[2] != "user" {
		t.Fatalf("unexpected roles %v", got)
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, anthropicMessage("end_turn", `{"notes":"x"}`))
	})
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		Schema:    knowledgeSchema(),
		MaxTokens: 64,
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) || inv.Kind != SchemaMismatch {
		t.Fatalf("expected SchemaMismatch, got %v", err)
	}
}

func TestAnthropicProvider_StopReasons(t *testing.T) {
	tests := []struct {
		stop  string
		check func(error) bool
	}{
		{"max_tokens", func(err error) bool { var e *ErrMaxTokensExceeded; return errors.As(err, &e) }},
		{"refusal", func(err error) bool { var e *ErrInvalidResponse; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		t.Run(tt.stop, func(t *testing.T) {
			p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, anthropicMessage(tt.stop, `{"knowledge_text":"trunc`))
			})
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 8,
			})
			if !tt.check(err) {
				t.Fatalf("unexpected error %T (%v)", err, err)
			}
		})
	}
}

func TestAnthropicProvider_RateLimitCarriesRetryAfter(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "Rate limit exceeded"},
		})
	})

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Fatalf("expected 7s retry-after, got %s", rl.RetryAfter)
	}
}

func TestAnthropicProvider_ServerError(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 529, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
	})

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	if d := parseRetryAfter(h); d != 0 {
		t.Fatalf("absent header: got %s", d)
	}
	h.Set("Retry-After", "1.5")
	if d := parseRetryAfter(h); d != 1500*time.Millisecond {
		t.Fatalf("seconds: got %s", d)
	}
	h.Set("Retry-After-Ms", "250")
	if d := parseRetryAfter(h); d != 250*time.Millisecond {
		t.Fatalf("retry-after-ms should win, got %s", d)
	}
	h = http.Header{"Retry-After": {"soon"}}
	if d := parseRetryAfter(h); d != 0 {
		t.Fatalf("garbage: got %s", d)
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	for in, want := range map[string]string{
		"claude-sonnet":   "claude-sonnet-4-5",
		"claude-haiku":    "claude-haiku-4-5",
		"claude-opus-4-5": "claude-opus-4-5",
	} {
		if got := resolveModel(in, anthropicModels); got != want {
			t.Errorf("resolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}
