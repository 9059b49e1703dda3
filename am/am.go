// Package am holds slideinspo configuration ("I am"): where the slide graph
// lives, which language model answers, where slide images are kept and how the
// batch resolver behaves.
package am

// Config represents the slideinspo configuration
type Config struct {
	Graph          GraphConfig          `mapstructure:"graph" json:"graph" yaml:"graph" toml:"graph"`
	LLM            LLMConfig            `mapstructure:"llm" json:"llm" yaml:"llm" toml:"llm"`
	OpenAI         OpenAIConfig         `mapstructure:"openai" json:"openai" yaml:"openai" toml:"openai"`
	OpenRouter     OpenRouterConfig     `mapstructure:"openrouter" json:"openrouter" yaml:"openrouter" toml:"openrouter"`
	Anthropic      AnthropicConfig      `mapstructure:"anthropic" json:"anthropic" yaml:"anthropic" toml:"anthropic"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference" json:"local_inference" yaml:"local_inference" toml:"local_inference"`
	Slides         SlidesConfig         `mapstructure:"slides" json:"slides" yaml:"slides" toml:"slides"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline" json:"pipeline" yaml:"pipeline" toml:"pipeline"`
	Database       DatabaseConfig       `mapstructure:"database" json:"database" yaml:"database" toml:"database"`
	Server         ServerConfig         `mapstructure:"server" json:"server" yaml:"server" toml:"server"`
}

// GraphConfig configures the Neo4j slide graph
type GraphConfig struct {
	URL            string `mapstructure:"url" json:"url" yaml:"url" toml:"url"`                                 // e.g. "neo4j://localhost:7687"
	Username       string `mapstructure:"username" json:"username" yaml:"username" toml:"username"`
	Password       string `mapstructure:"password" json:"-" yaml:"-" toml:"-"`
	Database       string `mapstructure:"database" json:"database" yaml:"database" toml:"database"`             // empty = server default database
	Query          string `mapstructure:"query" json:"query,omitempty" yaml:"query,omitempty" toml:"query,omitempty"` // empty = built-in slide/storypoint query
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// LLMConfig configures provider selection and request shaping shared by all providers
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" json:"provider" yaml:"provider" toml:"provider"`                               // auto, openai, openrouter, anthropic, local
	MaxTokens         int     `mapstructure:"max_tokens" json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`                       // per request
	MarkupMaxTokens   int     `mapstructure:"markup_max_tokens" json:"markup_max_tokens" yaml:"markup_max_tokens" toml:"markup_max_tokens"` // HTML mocks are longer than slide names
	MarkupTemperature float64 `mapstructure:"markup_temperature" json:"markup_temperature" yaml:"markup_temperature" toml:"markup_temperature"`
	MaxRetries        int     `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries" toml:"max_retries"`                   // extra attempts on network errors (0 = single attempt)
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// OpenAIConfig configures direct OpenAI access (or any OpenAI-compatible gateway)
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"-" toml:"-"`
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url" toml:"base_url"`
	Model   string `mapstructure:"model" json:"model" yaml:"model" toml:"model"`
}

// OpenRouterConfig configures OpenRouter.ai API access
type OpenRouterConfig struct {
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-" toml:"-"`
	Model  string `mapstructure:"model" json:"model" yaml:"model" toml:"model"` // e.g. "openai/gpt-4o-mini"
}

// AnthropicConfig configures direct Anthropic API access
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-" toml:"-"`
	Model  string `mapstructure:"model" json:"model" yaml:"model" toml:"model"`
}

// LocalInferenceConfig configures local model inference (Ollama, LocalAI, etc.)
type LocalInferenceConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url" toml:"base_url"` // e.g. "http://localhost:11434" for Ollama
	Model   string `mapstructure:"model" json:"model" yaml:"model" toml:"model"`
}

// SlidesConfig configures the pre-rendered slide image library
type SlidesConfig struct {
	BaseDir      string `mapstructure:"base_dir" json:"base_dir" yaml:"base_dir" toml:"base_dir"`
	DefaultCount int    `mapstructure:"default_count" json:"default_count" yaml:"default_count" toml:"default_count"`
	MaxCount     int    `mapstructure:"max_count" json:"max_count" yaml:"max_count" toml:"max_count"` // 0 = unlimited
}

// PipelineConfig configures the batch orchestrator
type PipelineConfig struct {
	Mode              string `mapstructure:"mode" json:"mode" yaml:"mode" toml:"mode"`                                                 // image or markup
	Parallelism       int    `mapstructure:"parallelism" json:"parallelism" yaml:"parallelism" toml:"parallelism"`                     // 1 = strictly sequential
	RequestsPerMinute int    `mapstructure:"requests_per_minute" json:"requests_per_minute" yaml:"requests_per_minute" toml:"requests_per_minute"` // 0 = unlimited
}

// DatabaseConfig configures the SQLite database used for usage tracking and run history
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" toml:"path"` // empty = no persistence
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port           *int     `mapstructure:"port" json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"` // nil = DefaultServerPort, 0 is invalid
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
}

// DefaultServerPort is used when server.port is not configured
const DefaultServerPort = 8787

// Pipeline modes
const (
	ModeImage  = "image"
	ModeMarkup = "markup"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// GetServerPort returns the configured port or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"http://localhost", "http://127.0.0.1"}
	}
	return c.Server.AllowedOrigins
}
