package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Graph defaults
	v.SetDefault("graph.url", "neo4j://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.timeout_seconds", 30)

	// Shared LLM defaults
	v.SetDefault("llm.provider", "auto")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.markup_max_tokens", 2500)
	v.SetDefault("llm.markup_temperature", 1.0) // creative, unlike storyline and matching (0)
	v.SetDefault("llm.max_retries", 0)
	v.SetDefault("llm.timeout_seconds", 120)

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo-1106")

	// OpenRouter defaults
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini") // Cost-effective default

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	// Local Inference (Ollama) defaults
	v.SetDefault("local_inference.enabled", false)
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")

	// Slide library defaults
	v.SetDefault("slides.base_dir", "slides_png")
	v.SetDefault("slides.default_count", 5)
	v.SetDefault("slides.max_count", 30)

	// Pipeline defaults
	v.SetDefault("pipeline.mode", ModeImage)
	v.SetDefault("pipeline.parallelism", 1)
	v.SetDefault("pipeline.requests_per_minute", 0)

	// Database defaults
	v.SetDefault("database.path", "slideinspo.db")

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables.
// The unprefixed names match the variables a .env file for this tool usually carries.
func BindSensitiveEnvVars(v *viper.Viper) {
	// Graph store
	_ = v.BindEnv("graph.url", "SLIDEINSPO_GRAPH_URL", "NEO4J_URL")
	_ = v.BindEnv("graph.username", "SLIDEINSPO_GRAPH_USERNAME", "NEO4J_USERNAME")
	_ = v.BindEnv("graph.password", "SLIDEINSPO_GRAPH_PASSWORD", "NEO4J_PASSWORD")

	// Model providers
	_ = v.BindEnv("openai.api_key", "SLIDEINSPO_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openrouter.api_key", "SLIDEINSPO_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("anthropic.api_key", "SLIDEINSPO_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	// Database path
	_ = v.BindEnv("database.path", "SLIDEINSPO_DATABASE_PATH")
}
