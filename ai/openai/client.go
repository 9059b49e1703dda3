// Package openai is a client for the OpenAI chat completions API and the
// gateways that speak it: OpenRouter and local servers such as Ollama.
package openai

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/ai/tracker"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/internal/httpclient"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/version"
)

const (
	// DefaultModel matches openai.model in am/defaults.go
	DefaultModel = "gpt-3.5-turbo-1106"

	DefaultBaseURL    = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultMaxTokens    = 1000
	defaultTimeout      = 120 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// Config holds client configuration
type Config struct {
	APIKey  string
	BaseURL string // "" = DefaultBaseURL
	Model   string // "" = DefaultModel
	// Provider labels usage rows: openai, openrouter or local
	Provider    string
	Temperature *float64 // nil = 0
	MaxTokens   *int     // nil = 1000
	// MaxRetries is the number of extra attempts after a network error or a
	// retryable status. 0 = a single attempt.
	MaxRetries   int
	RetryBackoff time.Duration // 0 = 500ms, grows linearly per attempt
	Timeout      time.Duration // 0 = 120s
	// Local servers are reached on private addresses and need no key
	Local   bool
	Headers map[string]string
	Logger  *zap.SugaredLogger // nil = nop logger
	DB      *sql.DB            // usage tracking; nil disables it
}

// Client talks to an OpenAI-compatible chat completions endpoint
type Client struct {
	config       Config
	httpClient   *http.Client
	usageTracker *tracker.UsageTracker
	logger       *zap.SugaredLogger
}

// NewClient creates a client, filling in defaults
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Provider == "" {
		config.Provider = "openai"
	}
	if config.Temperature == nil {
		config.Temperature = ai.Float64(0)
	}
	if config.MaxTokens == nil {
		config.MaxTokens = ai.Int(defaultMaxTokens)
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaultRetryBackoff
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	var usageTracker *tracker.UsageTracker
	if config.DB != nil {
		usageTracker = tracker.NewUsageTracker(config.DB)
	}

	return &Client{
		config: config,
		httpClient: httpclient.New(httpclient.Options{
			Timeout:        config.Timeout,
			BlockPrivateIP: !config.Local,
		}),
		usageTracker: usageTracker,
		logger:       logger.OrNop(config.Logger),
	}
}

// SetHTTPClient replaces the HTTP client (tests point it at httptest servers)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Model returns the default model
func (c *Client) Model() string {
	return c.config.Model
}

// Provider returns the provider label
func (c *Client) Provider() string {
	return c.config.Provider
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"` // pointer so 0 is sent
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StatusError is a non-2xx answer from the provider
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// Chat sends a single-turn request. Errors are marked errors.ErrTransport.
func (c *Client) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	if c.config.APIKey == "" && !c.config.Local {
		return nil, errors.MarkTransport(errors.WithHint(
			errors.Newf("%s API key not configured", c.config.Provider),
			"set OPENAI_API_KEY (or the provider's key) in the environment or .env"))
	}

	model := c.config.Model
	if req.Model != nil && *req.Model != "" {
		model = *req.Model
	}
	temperature := c.config.Temperature
	if req.Temperature != nil {
		temperature = req.Temperature
	}
	maxTokens := *c.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	body := chatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: req.UserPrompt})
	if req.JSONResponse {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	log := logger.FromContext(ctx, c.logger)
	log.Debugw("Chat request",
		logger.FieldProvider, c.config.Provider,
		logger.FieldModel, model,
		logger.FieldOperation, req.Operation,
		"temperature", *temperature,
		"max_tokens", maxTokens,
		"json", req.JSONResponse,
	)

	requestTime := time.Now()
	var resp *chatCompletionResponse
	var err error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.config.RetryBackoff
			log.Debugw("Retrying chat request", "attempt", attempt, "delay", delay.String())
			if err = sleepCtx(ctx, delay); err != nil {
				break
			}
		}

		resp, err = c.createChatCompletion(ctx, body)
		if err == nil || !isRetryable(err) {
			break
		}
		log.Debugw("Retryable error", logger.FieldError, err)
	}

	if err != nil {
		c.track(ctx, req, model, temperature, maxTokens, requestTime, nil, err)
		return nil, errors.MarkTransport(errors.Wrapf(err, "%s API error", c.config.Provider))
	}
	if len(resp.Choices) == 0 {
		err = errors.Newf("no response choices from %s", c.config.Provider)
		c.track(ctx, req, model, temperature, maxTokens, requestTime, nil, err)
		return nil, errors.MarkTransport(err)
	}

	out := &ai.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if !c.config.Local {
		out.Usage.Cost = CalculateCost(model, out.Usage.PromptTokens, out.Usage.CompletionTokens)
	}

	log.Debugw("Chat response",
		logger.FieldModel, out.Model,
		"content_length", len(out.Content),
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		logger.FieldDurationMS, time.Since(requestTime).Milliseconds(),
	)

	c.track(ctx, req, model, temperature, maxTokens, requestTime, out, nil)
	return out, nil
}

func (c *Client) createChatCompletion(ctx context.Context, body chatCompletionRequest) (*chatCompletionResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.Get().UserAgent())
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: httpResp.StatusCode}
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			statusErr.Message = apiErr.Error.Message
		} else {
			statusErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, errors.Wrapf(statusErr, "status %d", httpResp.StatusCode)
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return &out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return httpclient.IsRetryableStatus(statusErr.StatusCode)
	}
	return httpclient.IsRetryable(err)
}

func (c *Client) track(ctx context.Context, req ai.ChatRequest, model string, temperature *float64, maxTokens int,
	requestTime time.Time, resp *ai.ChatResponse, callErr error) {
	if c.usageTracker == nil {
		return
	}

	responseTime := time.Now()
	usage := &tracker.ModelUsage{
		OperationType:     req.Operation,
		RunID:             logger.RunIDFromContext(ctx),
		ModelName:         model,
		ModelProvider:     c.config.Provider,
		ModelConfig:       tracker.NewModelConfig(temperature, &maxTokens, req.JSONResponse),
		RequestTimestamp:  requestTime,
		ResponseTimestamp: &responseTime,
		Success:           callErr == nil,
	}
	if resp != nil {
		prompt, completion, total := resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens
		cost := resp.Usage.Cost
		outputLength := len(resp.Content)
		usage.PromptTokens = &prompt
		usage.CompletionTokens = &completion
		usage.TokensUsed = &total
		usage.Cost = &cost
		usage.Metadata = tracker.NewUsageMetadata(tracker.UsageMetadata{OutputLength: &outputLength})
	}
	if callErr != nil {
		msg := callErr.Error()
		usage.ErrorMessage = &msg
	}

	// cancelled requests are recorded too
	if err := c.usageTracker.TrackUsage(context.WithoutCancel(ctx), usage); err != nil {
		c.logger.Warnw("Failed to track model usage", logger.FieldError, err)
	}
}
