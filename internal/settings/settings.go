// Package settings stores the LLM provider selection and credentials in
// the database and resolves the provider each AI operation should use.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/store"
)

// KeyProvider is the settings key selecting the provider kind.
const KeyProvider = "llm_provider"

const (
	apiKeySuffix = "_api_key"
	modelSuffix  = "_model"
	maskPrefix   = 8
)

var (
	// ErrInvalidProvider is returned for an unknown provider kind.
	ErrInvalidProvider = errors.New("invalid LLM provider")

	// ErrMissingAPIKey is returned when the selected provider has no key
	// in the settings table or the environment.
	ErrMissingAPIKey = errors.New("API key is not configured")

	// ErrUnknownSetting is returned when an update names an unsupported key.
	ErrUnknownSetting = errors.New("unknown setting")
)

// APIKeySetting returns the settings key holding kind's API key.
func APIKeySetting(kind string) string { return kind + apiKeySuffix }

// ModelSetting returns the settings key holding kind's model.
func ModelSetting(kind string) string { return kind + modelSuffix }

// ProviderView describes one provider without exposing its key.
type ProviderView struct {
	Model        string `json:"model"`
	APIKeyMasked string `json:"api_key_masked"`
	Configured   bool   `json:"configured"`
}

// View is the readable form of the settings.
type View struct {
	LLMProvider string                  `json:"llm_provider"`
	Providers   map[string]ProviderView `json:"providers"`
}

// ProviderFactory builds a provider chain from a resolved configuration.
type ProviderFactory func(ctx context.Context, cfg llm.Config, events llm.EventRecorder, log *logger.Logger) (llm.Provider, error)

// Service reads and writes settings. It implements llm.Source.
type Service struct {
	store   *store.Store
	base    llm.Config
	factory ProviderFactory
	log     *logger.Logger

	mu       sync.Mutex
	cacheKey string
	cached   llm.Provider
}

// Option configures a Service.
type Option func(*Service)

// WithFactory replaces llm.NewProvider.
func WithFactory(f ProviderFactory) Option {
	return func(s *Service) { s.factory = f }
}

// NewService creates a settings service. base carries the file and
// environment configuration that stored settings override.
func NewService(s *store.Store, base llm.Config, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	svc := &Service{store: s, base: base, factory: llm.NewProvider, log: log.With("component", "settings")}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Mask hides all but the first 8 characters of a key. Keys of 8
// characters or fewer become "configured"; an empty key stays empty.
func Mask(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) > maskPrefix:
		return key[:maskPrefix] + "***"
	default:
		return "configured"
	}
}

// Resolve overlays the stored settings onto the base configuration.
func (s *Service) Resolve(ctx context.Context) (llm.Config, error) {
	stored, err := s.store.Settings().All(ctx)
	if err != nil {
		return llm.Config{}, err
	}

	cfg := s.base
	if p := stored[KeyProvider]; p != "" {
		cfg.Provider = p
	}
	for _, kind := range llm.Providers {
		if k := stored[APIKeySetting(kind)]; k != "" {
			cfg.SetAPIKey(kind, k)
		}
		if m := stored[ModelSetting(kind)]; m != "" {
			cfg.SetModel(kind, m)
		}
	}
	return cfg, nil
}

// View returns the effective settings with masked keys.
func (s *Service) View(ctx context.Context) (View, error) {
	cfg, err := s.Resolve(ctx)
	if err != nil {
		return View{}, err
	}
	v := View{LLMProvider: cfg.Provider, Providers: make(map[string]ProviderView, len(llm.Providers))}
	for _, kind := range llm.Providers {
		key := cfg.APIKey(kind)
		v.Providers[kind] = ProviderView{
			Model:        cfg.Model(kind),
			APIKeyMasked: Mask(key),
			Configured:   key != "",
		}
	}
	return v, nil
}

// Update writes the given flat settings: llm_provider, <kind>_api_key and
// <kind>_model. An empty API key leaves the stored key unchanged.
func (s *Service) Update(ctx context.Context, values map[string]string) error {
	writes := map[string]string{}
	for key, value := range values {
		value = strings.TrimSpace(value)
		switch {
		case key == KeyProvider:
			if !slices.Contains(llm.Providers, value) {
				return fmt.Errorf("%w: %q", ErrInvalidProvider, value)
			}
			writes[key] = value
		case strings.HasSuffix(key, apiKeySuffix) && knownKind(strings.TrimSuffix(key, apiKeySuffix)):
			if value != "" {
				writes[key] = value
			}
		case strings.HasSuffix(key, modelSuffix) && knownKind(strings.TrimSuffix(key, modelSuffix)):
			writes[key] = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
		}
	}
	if len(writes) == 0 {
		return nil
	}

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		for k, v := range writes {
			if err := tx.Settings().Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	keys := make([]string, 0, len(writes))
	for k := range writes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	s.log.Info("settings updated", "keys", keys)
	return nil
}

func knownKind(kind string) bool {
	return slices.Contains(llm.Providers, kind)
}

// Provider resolves the configured provider chain. The chain is rebuilt
// only when the resolved configuration changes, so rate limiting state
// carries across requests.
func (s *Service) Provider(ctx context.Context) (llm.Provider, error) {
	cfg, err := s.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Provider != llm.ProviderMock && !knownKind(cfg.Provider) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, cfg.Provider)
	}
	if cfg.Provider != llm.ProviderMock && cfg.APIKey(cfg.Provider) == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, cfg.Provider)
	}

	key := cacheKey(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.cacheKey == key {
		return s.cached, nil
	}

	p, err := s.factory(ctx, cfg, s.store.Events(), s.log)
	if err != nil {
		return nil, err
	}
	s.cached, s.cacheKey = p, key
	s.log.Debug("provider resolved", "provider", cfg.Provider, "model", p.ModelID())
	return p, nil
}

func cacheKey(cfg llm.Config) string {
	return strings.Join([]string{cfg.Provider, cfg.APIKey(cfg.Provider), cfg.Model(cfg.Provider)}, "\x00")
}
