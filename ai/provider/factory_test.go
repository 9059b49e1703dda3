package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/ai/anthropic"
	"github.com/teranos/slideinspo/ai/openai"
	"github.com/teranos/slideinspo/am"
	"github.com/teranos/slideinspo/errors"
)

func testConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *am.Config)
		want   Provider
	}{
		{"no keys defaults to openai", func(c *am.Config) {}, ProviderOpenAI},
		{"local wins", func(c *am.Config) {
			c.LocalInference.Enabled = true
			c.OpenAI.APIKey = "sk"
		}, ProviderLocal},
		{"anthropic before openai", func(c *am.Config) {
			c.Anthropic.APIKey = "ak"
			c.OpenAI.APIKey = "sk"
		}, ProviderAnthropic},
		{"openai before openrouter", func(c *am.Config) {
			c.OpenAI.APIKey = "sk"
			c.OpenRouter.APIKey = "or"
		}, ProviderOpenAI},
		{"openrouter only", func(c *am.Config) { c.OpenRouter.APIKey = "or" }, ProviderOpenRouter},
		{"explicit provider", func(c *am.Config) {
			c.LLM.Provider = "OpenRouter"
			c.Anthropic.APIKey = "ak"
		}, ProviderOpenRouter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			assert.Equal(t, tt.want, Select(cfg))
		})
	}
}

func TestNewClientWithProvider(t *testing.T) {
	cfg := testConfig(t)

	c, err := NewClientWithProvider(cfg, ProviderOpenAI, ClientConfig{})
	require.NoError(t, err)
	oc, ok := c.(*openai.Client)
	require.True(t, ok)
	assert.Equal(t, "gpt-3.5-turbo-1106", oc.Model())

	c, err = NewClientWithProvider(cfg, ProviderOpenRouter, ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.(*openai.Client).Provider())

	c, err = NewClientWithProvider(cfg, ProviderAnthropic, ClientConfig{})
	require.NoError(t, err)
	_, ok = c.(*anthropic.Client)
	assert.True(t, ok)

	_, err = NewClientWithProvider(cfg, Provider("mystery"), ClientConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestNewClient_LocalInference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "deck_002_slide_0007"}}]}`))
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.LocalInference.Enabled = true
	cfg.LocalInference.BaseURL = server.URL

	client, p, err := NewClient(cfg, ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, p)

	resp, err := client.Chat(context.Background(), ai.ChatRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "deck_002_slide_0007", resp.Content)
}

func TestLocalBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/v1", localBaseURL("http://localhost:11434"))
	assert.Equal(t, "http://localhost:11434/v1", localBaseURL("http://localhost:11434/"))
	assert.Equal(t, "http://localhost:8080/v1", localBaseURL("http://localhost:8080/v1"))
}
