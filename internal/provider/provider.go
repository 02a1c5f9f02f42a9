// Package provider builds the configured model provider for both binaries.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/anthropic"
	"github.com/fwojciec/glimpse/gemini"
	"github.com/fwojciec/glimpse/internal/config"
	"github.com/fwojciec/glimpse/ollama"
	"go.uber.org/zap"
)

// ApplyFlags layers command-line overrides onto cfg. Empty flags leave the
// configured value alone. The API key flag sets the key of the selected
// provider.
func ApplyFlags(cfg *config.Config, providerFlag, modelFlag, apiKeyFlag string) {
	if providerFlag != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(providerFlag))
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if apiKeyFlag == "" {
		return
	}
	if cfg.Provider == config.ProviderAnthropic {
		cfg.AnthropicAPIKey = apiKeyFlag
		return
	}
	cfg.APIKey = apiKeyFlag
}

// Resolve validates cfg and constructs the selected provider.
// All env var values arrive through cfg; env is only read in main.
func Resolve(ctx context.Context, cfg *config.Config, logger *zap.Logger) (glimpse.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		opts := []gemini.Option{gemini.WithThinking(cfg.Thinking), gemini.WithLogger(logger)}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		client, err := gemini.New(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithLogger(logger)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		client, err := anthropic.New(cfg.AnthropicAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithLogger(logger)}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		client, err := ollama.New(cfg.OllamaHost, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
