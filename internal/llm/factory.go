package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/skilltrail/internal/logger"
)

// NewProvider creates a Provider from configuration.
//
// The middleware chain is: caller → timeout → corrective retry (JSON-mode
// kinds only) → rate limit → logging → base. Logging sits innermost so
// every attempt is recorded, and each attempt takes its own limiter token.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderZAI:
		base, err = NewZAIProvider(cfg.ZAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return decorate(base, cfg, events, log), nil
}

func decorate(base Provider, cfg Config, events EventRecorder, log *logger.Logger) Provider {
	p := WithLogging(base, cfg.Provider, events, log)
	p = WithRateLimit(p, cfg.RequestsPerSecond, cfg.Burst)
	if !SchemaConstrained(cfg.Provider) {
		p = WithCorrectiveRetry(p, cfg.MaxRetries)
	}
	return WithTimeout(p, cfg.Timeout)
}
