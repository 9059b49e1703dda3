// Package provider builds the ai.Client selected by configuration.
package provider

import (
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/ai/anthropic"
	"github.com/teranos/slideinspo/ai/openai"
	"github.com/teranos/slideinspo/am"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
)

// Provider names a model provider
type Provider string

const (
	ProviderLocal      Provider = "local"      // Ollama, LocalAI or any OpenAI-compatible local server
	ProviderOpenAI     Provider = "openai"     // Direct OpenAI API
	ProviderOpenRouter Provider = "openrouter" // OpenRouter gateway
	ProviderAnthropic  Provider = "anthropic"  // Direct Anthropic API
	ProviderAuto       Provider = "auto"
)

// ClientConfig carries dependencies shared by every provider
type ClientConfig struct {
	DB     *sql.DB // usage tracking; nil disables it
	Logger *zap.SugaredLogger
}

// Select resolves llm.provider, applying auto-selection:
// local inference when enabled, then the first provider with a key among
// Anthropic, OpenAI and OpenRouter. With no key at all OpenAI is returned
// so the missing-key error names the provider the tool defaults to.
func Select(cfg *am.Config) Provider {
	p := Provider(strings.ToLower(cfg.LLM.Provider))
	if p != ProviderAuto && p != "" {
		return p
	}
	switch {
	case cfg.LocalInference.Enabled:
		return ProviderLocal
	case cfg.Anthropic.APIKey != "":
		return ProviderAnthropic
	case cfg.OpenAI.APIKey != "":
		return ProviderOpenAI
	case cfg.OpenRouter.APIKey != "":
		return ProviderOpenRouter
	default:
		return ProviderOpenAI
	}
}

// NewClient builds the configured client and reports which provider it uses
func NewClient(cfg *am.Config, clientCfg ClientConfig) (ai.Client, Provider, error) {
	p := Select(cfg)
	client, err := NewClientWithProvider(cfg, p, clientCfg)
	if err != nil {
		return nil, p, err
	}
	logger.OrNop(clientCfg.Logger).Debugw("Model provider selected", logger.FieldProvider, string(p))
	return client, p, nil
}

// NewClientWithProvider builds a client for an explicit provider
func NewClientWithProvider(cfg *am.Config, p Provider, clientCfg ClientConfig) (ai.Client, error) {
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	maxTokens := cfg.LLM.MaxTokens

	switch p {
	case ProviderLocal:
		return openai.NewClient(openai.Config{
			BaseURL:    localBaseURL(cfg.LocalInference.BaseURL),
			Model:      cfg.LocalInference.Model,
			Provider:   string(ProviderLocal),
			MaxTokens:  &maxTokens,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    timeout,
			Local:      true,
			Logger:     clientCfg.Logger,
			DB:         clientCfg.DB,
		}), nil

	case ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Provider:   string(ProviderOpenAI),
			MaxTokens:  &maxTokens,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    timeout,
			Logger:     clientCfg.Logger,
			DB:         clientCfg.DB,
		}), nil

	case ProviderOpenRouter:
		return openai.NewClient(openai.Config{
			APIKey:     cfg.OpenRouter.APIKey,
			BaseURL:    openai.OpenRouterBaseURL,
			Model:      cfg.OpenRouter.Model,
			Provider:   string(ProviderOpenRouter),
			MaxTokens:  &maxTokens,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    timeout,
			Headers:    map[string]string{"X-Title": "slideinspo"},
			Logger:     clientCfg.Logger,
			DB:         clientCfg.DB,
		}), nil

	case ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey:     cfg.Anthropic.APIKey,
			Model:      cfg.Anthropic.Model,
			MaxTokens:  &maxTokens,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    timeout,
			Logger:     clientCfg.Logger,
			DB:         clientCfg.DB,
		}), nil

	default:
		return nil, errors.NewInvalidRequestError("unknown model provider %q", string(p))
	}
}

// localBaseURL points Ollama-style roots at their OpenAI-compatible API
func localBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}
