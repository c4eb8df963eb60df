package llm

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Provider kinds.
const (
	ProviderZAI        = "zai"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Providers lists the selectable provider kinds.
var Providers = []string{ProviderZAI, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter}

// SchemaConstrained reports whether provider kind decodes against the
// schema natively. Other kinds get validate-and-retry.
func SchemaConstrained(kind string) bool {
	switch kind {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "zai", "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	ZAI        ZAIConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig

	// MaxRetries is the corrective re-prompt budget for JSON-mode
	// providers. Default: 2.
	MaxRetries int

	// RequestsPerSecond and Burst pace outgoing calls. Zero disables.
	RequestsPerSecond float64
	Burst             int

	// Timeout is the maximum duration for a single LLM request
	// (including corrective retries). Default: 120s.
	Timeout time.Duration
}

// ZAIConfig holds configuration for the Z.AI OpenAI-compatible endpoint.
type ZAIConfig struct {
	APIKey     string
	Model      string // Default: "glm-4.7"
	BaseURL    string // Default: "https://api.z.ai/api/coding/paas/v4"
	HTTPClient *http.Client
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey     string
	Model      string // Default: "gpt-5.2"
	BaseURL    string // Optional. Override for compatible APIs.
	HTTPClient *http.Client
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.5-flash"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderZAI,
		ZAI: ZAIConfig{
			Model:   "glm-4.7",
			BaseURL: defaultZAIBaseURL,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-5.2",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.5-flash",
		},
		MaxRetries:        DefaultMaxRetries,
		RequestsPerSecond: 2,
		Burst:             4,
		Timeout:           120 * time.Second,
	}
}

// ApplyEnv overlays the standard provider API key variables onto cfg.
func (c *Config) ApplyEnv() {
	if k := os.Getenv("ZAI_API_KEY"); k != "" {
		c.ZAI.APIKey = k
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.OpenAI.APIKey = k
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Anthropic.APIKey = k
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Gemini.APIKey = k
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		c.OpenRouter.APIKey = k
	}
	if p := os.Getenv("SKILLTRAIL_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}
}

// APIKey returns the key configured for provider kind.
func (c Config) APIKey(kind string) string {
	switch kind {
	case ProviderZAI:
		return c.ZAI.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

// SetAPIKey sets the key for provider kind.
func (c *Config) SetAPIKey(kind, key string) {
	switch kind {
	case ProviderZAI:
		c.ZAI.APIKey = key
	case ProviderOpenAI:
		c.OpenAI.APIKey = key
	case ProviderAnthropic:
		c.Anthropic.APIKey = key
	case ProviderGemini:
		c.Gemini.APIKey = key
	case ProviderOpenRouter:
		c.OpenRouter.APIKey = key
	}
}

// Model returns the model configured for provider kind.
func (c Config) Model(kind string) string {
	switch kind {
	case ProviderZAI:
		return c.ZAI.Model
	case ProviderOpenAI:
		return c.OpenAI.Model
	case ProviderAnthropic:
		return c.Anthropic.Model
	case ProviderGemini:
		return c.Gemini.Model
	case ProviderOpenRouter:
		return c.OpenRouter.Model
	}
	return ""
}

// SetModel sets the model for provider kind.
func (c *Config) SetModel(kind, model string) {
	switch kind {
	case ProviderZAI:
		c.ZAI.Model = model
	case ProviderOpenAI:
		c.OpenAI.Model = model
	case ProviderAnthropic:
		c.Anthropic.Model = model
	case ProviderGemini:
		c.Gemini.Model = model
	case ProviderOpenRouter:
		c.OpenRouter.Model = model
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderZAI, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter:
		if c.APIKey(c.Provider) == "" {
			return fmt.Errorf("an API key is required for the %s provider", c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
