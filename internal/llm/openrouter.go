package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultZAIBaseURL        = "https://api.z.ai/api/coding/paas/v4"
)

// NewOpenRouterProvider creates a JSON-mode provider targeting the
// OpenRouter API. OpenRouter exposes an OpenAI-compatible API, so the
// underlying SDK is reused.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	p := newOpenAIProviderRaw(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: baseURL})
	p.jsonMode = true
	return p, nil
}

// NewZAIProvider creates a JSON-mode provider for the Z.AI coding
// endpoint, which is OpenAI-compatible but has no schema-constrained
// decoding.
func NewZAIProvider(cfg ZAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("zai API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultZAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "glm-4.7"
	}
	p := newOpenAIProviderRaw(OpenAIConfig{APIKey: cfg.APIKey, Model: model, BaseURL: baseURL, HTTPClient: cfg.HTTPClient})
	p.jsonMode = true
	return p, nil
}
