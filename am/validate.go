package am

import (
	"strings"

	"github.com/teranos/slideinspo/errors"
)

// Known LLM provider names for llm.provider
var knownProviders = map[string]bool{
	"auto":       true,
	"openai":     true,
	"openrouter": true,
	"anthropic":  true,
	"local":      true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty disables usage tracking and run history

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if strings.TrimSpace(c.Graph.URL) == "" {
		return errors.New("graph.url cannot be empty (set NEO4J_URL or graph.url)")
	}
	if c.Graph.TimeoutSeconds < 0 {
		return errors.Newf("graph.timeout_seconds must be >= 0, got %d", c.Graph.TimeoutSeconds)
	}

	if !knownProviders[c.LLM.Provider] {
		return errors.Newf("llm.provider must be one of auto, openai, openrouter, anthropic, local; got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.Newf("llm.max_tokens must be > 0, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MarkupMaxTokens <= 0 {
		return errors.Newf("llm.markup_max_tokens must be > 0, got %d", c.LLM.MarkupMaxTokens)
	}
	if c.LLM.MarkupTemperature < 0 || c.LLM.MarkupTemperature > 2 {
		return errors.Newf("llm.markup_temperature must be within [0, 2], got %g", c.LLM.MarkupTemperature)
	}
	// Retries: 0 = single attempt (zero means zero), negative = invalid
	if c.LLM.MaxRetries < 0 {
		return errors.Newf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.Newf("llm.timeout_seconds must be > 0, got %d", c.LLM.TimeoutSeconds)
	}

	// Validate local inference configuration only when enabled
	if c.LocalInference.Enabled {
		if c.LocalInference.BaseURL == "" {
			return errors.New("local_inference.base_url cannot be empty when enabled")
		}
		if c.LocalInference.Model == "" {
			return errors.New("local_inference.model cannot be empty when enabled")
		}
	}

	if c.Slides.DefaultCount < 1 {
		return errors.Newf("slides.default_count must be >= 1, got %d", c.Slides.DefaultCount)
	}
	// Max count: 0 = unlimited, negative = invalid
	if c.Slides.MaxCount < 0 {
		return errors.Newf("slides.max_count must be >= 0, got %d", c.Slides.MaxCount)
	}
	if c.Slides.MaxCount > 0 && c.Slides.DefaultCount > c.Slides.MaxCount {
		return errors.Newf("slides.default_count (%d) exceeds slides.max_count (%d)", c.Slides.DefaultCount, c.Slides.MaxCount)
	}

	if c.Pipeline.Mode != ModeImage && c.Pipeline.Mode != ModeMarkup {
		return errors.Newf("pipeline.mode must be %q or %q, got %q", ModeImage, ModeMarkup, c.Pipeline.Mode)
	}
	if c.Pipeline.Parallelism < 1 {
		return errors.Newf("pipeline.parallelism must be >= 1, got %d", c.Pipeline.Parallelism)
	}
	// Rate: 0 = unlimited, negative = invalid
	if c.Pipeline.RequestsPerMinute < 0 {
		return errors.Newf("pipeline.requests_per_minute must be >= 0, got %d", c.Pipeline.RequestsPerMinute)
	}

	return nil
}
