// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/glimpse"
	"gopkg.in/yaml.v3"
)

// Supported providers.
const (
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration. When ImageDir is set, every
// upload is also saved there as a versioned artifact.
type Config struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"api_key"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	Model           string        `yaml:"model"`
	OllamaHost      string        `yaml:"ollama_host"`
	Thinking        bool          `yaml:"thinking"`
	MaxTokens       int           `yaml:"max_tokens"`
	ImageDir        string        `yaml:"image_dir"`
	MaxImageBytes   int64         `yaml:"max_image_bytes"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	Port            string        `yaml:"port"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:      ProviderGemini,
		OllamaHost:    "http://127.0.0.1:11434",
		MaxImageBytes: 20 << 20,
		LogLevel:      "info",
		Port:          "8080",
		SessionTTL:    60 * time.Minute,
	}
}

// Load layers the built-in defaults, the YAML file at path (skipped when
// path is empty), and environment variables read through lookup. It does
// not validate; callers apply command-line overrides and then call Validate.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	env := envReader{lookup: lookup}
	cfg.Provider = env.getString("GLIMPSE_PROVIDER", cfg.Provider)
	cfg.APIKey = env.getString("GOOGLE_API_KEY", env.getString("GEMINI_API_KEY", cfg.APIKey))
	cfg.AnthropicAPIKey = env.getString("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.Model = env.getString("GLIMPSE_MODEL", cfg.Model)
	cfg.OllamaHost = env.getString("OLLAMA_HOST", cfg.OllamaHost)
	cfg.Thinking = env.getBool("GLIMPSE_THINKING", cfg.Thinking)
	cfg.MaxTokens = env.getInt("GLIMPSE_MAX_TOKENS", cfg.MaxTokens)
	cfg.ImageDir = env.getString("GLIMPSE_IMAGE_DIR", cfg.ImageDir)
	cfg.MaxImageBytes = int64(env.getInt("GLIMPSE_MAX_IMAGE_BYTES", int(cfg.MaxImageBytes)))
	cfg.LogLevel = env.getString("GLIMPSE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = env.getString("GLIMPSE_LOG_FILE", cfg.LogFile)
	cfg.Port = env.getString("PORT", cfg.Port)
	cfg.SessionTTL = env.getDuration("SESSION_TTL", cfg.SessionTTL)

	if env.err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", env.err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}

// Validate checks that the configuration is usable. A Gemini or Anthropic
// provider without its API key fails with [glimpse.ErrMissingCredential].
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY or GEMINI_API_KEY must be set: %w", glimpse.ErrMissingCredential)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY must be set: %w", glimpse.ErrMissingCredential)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST cannot be empty: %w", glimpse.ErrValidation)
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s, %s or %s): %w",
			c.Provider, ProviderGemini, ProviderAnthropic, ProviderOllama, glimpse.ErrValidation)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("GLIMPSE_MAX_TOKENS must be >= 0: %w", glimpse.ErrValidation)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("GLIMPSE_MAX_IMAGE_BYTES must be > 0: %w", glimpse.ErrValidation)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty: %w", glimpse.ErrValidation)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0: %w", glimpse.ErrValidation)
	}
	return nil
}

// envReader reads typed values through lookup. The first malformed value
// is kept in err.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) getString(key, fallback string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e *envReader) getBool(key string, fallback bool) bool {
	value, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		e.fail(key, value, errors.New("not a boolean"))
		return fallback
	}
}

func (e *envReader) getInt(key string, fallback int) int {
	value, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		e.fail(key, value, err)
		return fallback
	}
	return n
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		e.fail(key, value, err)
		return fallback
	}
	return d
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s=%q: %w: %w", key, value, err, glimpse.ErrValidation)
	}
}
