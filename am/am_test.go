package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
	return path
}

func TestSetDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "neo4j://localhost:7687", cfg.Graph.URL)
	assert.Equal(t, "auto", cfg.LLM.Provider)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.InDelta(t, 1.0, cfg.LLM.MarkupTemperature, 1e-9)
	assert.Equal(t, "gpt-3.5-turbo-1106", cfg.OpenAI.Model)
	assert.Equal(t, "slides_png", cfg.Slides.BaseDir)
	assert.Equal(t, 5, cfg.Slides.DefaultCount)
	assert.Equal(t, ModeImage, cfg.Pipeline.Mode)
	assert.Equal(t, 1, cfg.Pipeline.Parallelism)
	assert.Equal(t, DefaultServerPort, cfg.GetServerPort())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "am.toml", `
[graph]
url = "neo4j://graph.internal:7687"
query = "MATCH (s:SLIDE) RETURN s.name AS SlideName"

[slides]
base_dir = "/srv/slides"
default_count = 8

[pipeline]
mode = "markup"
parallelism = 4

[server]
port = 9000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "neo4j://graph.internal:7687", cfg.Graph.URL)
	assert.Contains(t, cfg.Graph.Query, "SlideName")
	assert.Equal(t, "/srv/slides", cfg.Slides.BaseDir)
	assert.Equal(t, 8, cfg.Slides.DefaultCount)
	assert.Equal(t, ModeMarkup, cfg.Pipeline.Mode)
	assert.Equal(t, 4, cfg.Pipeline.Parallelism)
	assert.Equal(t, 9000, cfg.GetServerPort())
	// untouched sections keep defaults
	assert.Equal(t, "gpt-3.5-turbo-1106", cfg.OpenAI.Model)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestBindSensitiveEnvVars(t *testing.T) {
	t.Setenv("NEO4J_URL", "bolt://env-host:7687")
	t.Setenv("NEO4J_USERNAME", "reader")
	t.Setenv("NEO4J_PASSWORD", "s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-plain")
	t.Setenv("SLIDEINSPO_OPENAI_API_KEY", "sk-prefixed")

	v := viper.New()
	BindSensitiveEnvVars(v)
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "bolt://env-host:7687", cfg.Graph.URL)
	assert.Equal(t, "reader", cfg.Graph.Username)
	assert.Equal(t, "s3cret", cfg.Graph.Password)
	assert.Equal(t, "sk-prefixed", cfg.OpenAI.APIKey, "prefixed variable wins")
}

func TestMergeConfigFiles(t *testing.T) {
	dir := t.TempDir()
	user := writeConfig(t, dir, "user.toml", `
[slides]
base_dir = "user-slides"
default_count = 3
`)
	project := writeConfig(t, dir, "project.toml", `
[slides]
base_dir = "project-slides"
`)

	v := viper.New()
	SetDefaults(v)
	require.NoError(t, mergeConfigFiles(v, []string{user, project}))
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "project-slides", cfg.Slides.BaseDir)
	assert.Equal(t, 3, cfg.Slides.DefaultCount)
}

func TestValidate(t *testing.T) {
	zero := 0
	negative := -1

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = &zero }, wantErr: "server.port cannot be 0"},
		{name: "port negative", mutate: func(c *Config) { c.Server.Port = &negative }, wantErr: "server.port must be positive"},
		{name: "empty graph url", mutate: func(c *Config) { c.Graph.URL = " " }, wantErr: "graph.url"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "mystery" }, wantErr: "llm.provider"},
		{name: "negative retries", mutate: func(c *Config) { c.LLM.MaxRetries = -1 }, wantErr: "llm.max_retries"},
		{name: "markup temperature too high", mutate: func(c *Config) { c.LLM.MarkupTemperature = 3 }, wantErr: "llm.markup_temperature"},
		{name: "local inference without model", mutate: func(c *Config) {
			c.LocalInference.Enabled = true
			c.LocalInference.Model = ""
		}, wantErr: "local_inference.model"},
		{name: "default count zero", mutate: func(c *Config) { c.Slides.DefaultCount = 0 }, wantErr: "slides.default_count"},
		{name: "default above max", mutate: func(c *Config) { c.Slides.DefaultCount = 50 }, wantErr: "exceeds slides.max_count"},
		{name: "unlimited max", mutate: func(c *Config) {
			c.Slides.MaxCount = 0
			c.Slides.DefaultCount = 50
		}},
		{name: "bad mode", mutate: func(c *Config) { c.Pipeline.Mode = "video" }, wantErr: "pipeline.mode"},
		{name: "parallelism zero", mutate: func(c *Config) { c.Pipeline.Parallelism = 0 }, wantErr: "pipeline.parallelism"},
		{name: "negative rate", mutate: func(c *Config) { c.Pipeline.RequestsPerMinute = -5 }, wantErr: "pipeline.requests_per_minute"},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "am.toml", "[slides]\nbase_dir = \"before\"\n")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.WithLoader(func() (*Config, error) { return LoadFromFile(path) }).
		WithDebounce(20 * time.Millisecond)
	t.Cleanup(func() { _ = cw.Stop() })

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return nil
	})
	cw.Start()

	require.NoError(t, os.WriteFile(path, []byte("[slides]\nbase_dir = \"after\"\n"), DefaultFilePermissions))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "after", cfg.Slides.BaseDir)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload not observed")
	}
}

func TestConfigWatcher_InvalidConfigSkipsCallbacks(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "am.toml", "[pipeline]\nparallelism = 2\n")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.WithLoader(func() (*Config, error) { return LoadFromFile(path) })
	t.Cleanup(func() { _ = cw.Stop() })

	called := false
	cw.OnReload(func(c *Config) error {
		called = true
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nparallelism = 0\n"), DefaultFilePermissions))
	err = cw.reload()
	require.Error(t, err)
	assert.False(t, called)
}

func TestNewConfigWatcher_NoPaths(t *testing.T) {
	_, err := NewConfigWatcher()
	require.Error(t, err)
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/tmp/am.toml~"))
	assert.True(t, isBackupFile("/tmp/.am.toml.swp"))
	assert.True(t, isBackupFile("/tmp/.#am.toml"))
	assert.False(t, isBackupFile("/tmp/am.toml"))
}
