package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive structured JSON.
type Provider interface {
	// Generate sends a prompt to the LLM and returns a structured response.
	// The request's Schema field, when set, instructs the provider to return
	// JSON conforming to that schema. The response Content will be the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. Single-shot generation sends
	// one user message; goal chat replays the stored dialogue.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// Schema-constrained providers pass it to their native structured output
	// mechanism; JSON-mode providers only request a JSON object and leave
	// validation to WithCorrectiveRetry.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as schema name for OpenAI and as
	// the compile cache key). Kebab-case, e.g. "tree-generation".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any

	// Check runs after Definition validates and enforces constraints JSON
	// Schema cannot express conveniently, such as discriminated-union
	// narrowing. Returned issues are reported to the model verbatim.
	Check func(raw json.RawMessage) []string
}

// Source resolves the provider to use for a request. Settings can change
// between requests, so callers resolve per operation.
type Source interface {
	Provider(ctx context.Context) (Provider, error)
}

type staticSource struct{ p Provider }

func (s staticSource) Provider(context.Context) (Provider, error) { return s.p, nil }

// Static returns a Source that always yields p.
func Static(p Provider) Source {
	return staticSource{p: p}
}

// Decode unmarshals a validated response into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil {
		return v, fmt.Errorf("decode: nil response")
	}
	if err := json.Unmarshal(resp.Content, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON object. When no Schema was
	// provided, this is the raw text response wrapped as a JSON string.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
