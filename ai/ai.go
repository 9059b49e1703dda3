// Package ai defines the chat abstraction every model provider implements.
package ai

import "context"

// Operation names recorded with each request for usage tracking
const (
	OperationStoryline = "storyline"
	OperationResolve   = "resolve"
	OperationMarkup    = "markup"
)

// ChatRequest is a single-turn chat completion request
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil = client default
	MaxTokens    *int     // nil = client default
	Model        *string  // nil = client default
	// JSONResponse asks the provider for a JSON object answer
	JSONResponse bool
	// Operation labels the request in usage tracking
	Operation string
}

// Usage reports token accounting for a response
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost,omitempty"`
}

// ChatResponse is the model's answer
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Client sends chat requests to a model provider.
// Transport and provider failures are marked with errors.ErrTransport.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

// Chat calls f
func (f ClientFunc) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return f(ctx, req)
}

// Float64 returns a pointer to v, for ChatRequest overrides
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for ChatRequest overrides
func Int(v int) *int { return &v }
