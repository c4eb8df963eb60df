// Package config loads skilltrail's configuration: built-in defaults, an
// optional TOML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/abhisek/skilltrail/internal/llm"
)

// Duration is a time.Duration written as a string such as "90s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Database struct {
	Path string `toml:"path"`
}

type Server struct {
	Addr string `toml:"addr"`
}

type Log struct {
	Mode string `toml:"mode"`
}

// Provider is one [llm.<kind>] table.
type Provider struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type LLM struct {
	Provider          string   `toml:"provider"`
	Timeout           Duration `toml:"timeout"`
	MaxRetries        int      `toml:"max_retries"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`

	ZAI        Provider `toml:"zai"`
	OpenAI     Provider `toml:"openai"`
	Anthropic  Provider `toml:"anthropic"`
	Gemini     Provider `toml:"gemini"`
	OpenRouter Provider `toml:"openrouter"`
}

type Knowledge struct {
	Concurrency int `toml:"concurrency"`
}

type Videos struct {
	OverlapConcurrency int `toml:"overlap_concurrency"`
	TranscriptLimit    int `toml:"transcript_limit"`
}

// Config is the full configuration.
type Config struct {
	Database  Database  `toml:"database"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
	LLM       LLM       `toml:"llm"`
	Knowledge Knowledge `toml:"knowledge"`
	Videos    Videos    `toml:"videos"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := llm.DefaultConfig()
	return Config{
		Server: Server{Addr: "127.0.0.1:8080"},
		Log:    Log{Mode: "dev"},
		LLM: LLM{
			Provider:          d.Provider,
			Timeout:           Duration{d.Timeout},
			MaxRetries:        d.MaxRetries,
			RequestsPerSecond: d.RequestsPerSecond,
			Burst:             d.Burst,
			ZAI:               Provider{Model: d.ZAI.Model, BaseURL: d.ZAI.BaseURL},
			OpenAI:            Provider{Model: d.OpenAI.Model},
			Anthropic:         Provider{Model: d.Anthropic.Model},
			Gemini:            Provider{Model: d.Gemini.Model},
			OpenRouter:        Provider{Model: d.OpenRouter.Model},
		},
		Knowledge: Knowledge{Concurrency: 3},
		Videos:    Videos{OverlapConcurrency: 3, TranscriptLimit: 8000},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/skilltrail/config.toml, falling
// back to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "skilltrail", "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultPath; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"SKILLTRAIL_DB":           &c.Database.Path,
		"SKILLTRAIL_ADDR":         &c.Server.Addr,
		"SKILLTRAIL_LOG_MODE":     &c.Log.Mode,
		"SKILLTRAIL_LLM_PROVIDER": &c.LLM.Provider,
		"ZAI_API_KEY":             &c.LLM.ZAI.APIKey,
		"OPENAI_API_KEY":          &c.LLM.OpenAI.APIKey,
		"ANTHROPIC_API_KEY":       &c.LLM.Anthropic.APIKey,
		"GEMINI_API_KEY":          &c.LLM.Gemini.APIKey,
		"OPENROUTER_API_KEY":      &c.LLM.OpenRouter.APIKey,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// LLMConfig converts the [llm] section into provider configuration.
func (c Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.LLM.Provider
	out.Timeout = c.LLM.Timeout.Duration
	out.MaxRetries = c.LLM.MaxRetries
	out.RequestsPerSecond = c.LLM.RequestsPerSecond
	out.Burst = c.LLM.Burst

	out.ZAI.APIKey = c.LLM.ZAI.APIKey
	out.ZAI.Model = orDefault(c.LLM.ZAI.Model, out.ZAI.Model)
	out.ZAI.BaseURL = orDefault(c.LLM.ZAI.BaseURL, out.ZAI.BaseURL)

	out.OpenAI.APIKey = c.LLM.OpenAI.APIKey
	out.OpenAI.Model = orDefault(c.LLM.OpenAI.Model, out.OpenAI.Model)
	out.OpenAI.BaseURL = c.LLM.OpenAI.BaseURL

	out.Anthropic.APIKey = c.LLM.Anthropic.APIKey
	out.Anthropic.Model = orDefault(c.LLM.Anthropic.Model, out.Anthropic.Model)
	out.Anthropic.BaseURL = c.LLM.Anthropic.BaseURL

	out.Gemini.APIKey = c.LLM.Gemini.APIKey
	out.Gemini.Model = orDefault(c.LLM.Gemini.Model, out.Gemini.Model)

	out.OpenRouter.APIKey = c.LLM.OpenRouter.APIKey
	out.OpenRouter.Model = orDefault(c.LLM.OpenRouter.Model, out.OpenRouter.Model)
	out.OpenRouter.BaseURL = c.LLM.OpenRouter.BaseURL
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
