// Package anthropic is a client for the Anthropic Messages API.
package anthropic

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
	// DefaultModel matches anthropic.model in am/defaults.go
	DefaultModel = "claude-sonnet-4-20250514"

	BaseURL    = "https://api.anthropic.com/v1"
	APIVersion = "2023-06-01"

	defaultMaxTokens = 1000
)

// jsonInstruction stands in for response_format, which the Messages API lacks
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Config holds client configuration
type Config struct {
	APIKey       string
	BaseURL      string   // "" = BaseURL
	Model        string   // "" = DefaultModel
	Temperature  *float64 // nil = 0
	MaxTokens    *int     // nil = 1000
	MaxRetries   int      // extra attempts on network errors and 429/5xx
	RetryBackoff time.Duration
	Timeout      time.Duration
	Logger       *zap.SugaredLogger
	DB           *sql.DB
}

// Client talks to the Anthropic Messages API
type Client struct {
	config       Config
	httpClient   *http.Client
	usageTracker *tracker.UsageTracker
	logger       *zap.SugaredLogger
}

// NewClient creates a client, filling in defaults
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == nil {
		config.Temperature = ai.Float64(0)
	}
	if config.MaxTokens == nil {
		config.MaxTokens = ai.Int(defaultMaxTokens)
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}

	var usageTracker *tracker.UsageTracker
	if config.DB != nil {
		usageTracker = tracker.NewUsageTracker(config.DB)
	}

	return &Client{
		config:       config,
		httpClient:   httpclient.New(httpclient.Options{Timeout: config.Timeout, BlockPrivateIP: true}),
		usageTracker: usageTracker,
		logger:       logger.OrNop(config.Logger),
	}
}

// SetHTTPClient replaces the HTTP client
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Model returns the default model
func (c *Client) Model() string {
	return c.config.Model
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string { return e.message }

// Chat sends a single-turn request. Errors are marked errors.ErrTransport.
func (c *Client) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.MarkTransport(errors.WithHint(
			errors.New("Anthropic API key not configured"),
			"set ANTHROPIC_API_KEY in the environment or .env"))
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

	system := req.SystemPrompt
	if req.JSONResponse {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	body := messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: temperature,
		Messages:    []message{{Role: "user", Content: req.UserPrompt}},
	}

	log := logger.FromContext(ctx, c.logger)
	log.Debugw("Messages request",
		logger.FieldProvider, "anthropic",
		logger.FieldModel, model,
		logger.FieldOperation, req.Operation,
	)

	requestTime := time.Now()
	var resp *messagesResponse
	var err error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * c.config.RetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				err = ctx.Err()
			case <-timer.C:
			}
			if ctx.Err() != nil {
				break
			}
		}

		resp, err = c.createMessage(ctx, body)
		if err == nil || !isRetryable(err) {
			break
		}
		log.Debugw("Retryable error", logger.FieldError, err)
	}

	if err != nil {
		c.track(ctx, req, model, temperature, maxTokens, requestTime, nil, err)
		return nil, errors.MarkTransport(errors.Wrap(err, "Anthropic API error"))
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	out := &ai.ChatResponse{
		Content: content.String(),
		Model:   model,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
			Cost:             CalculateCost(model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		},
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}

	c.track(ctx, req, model, temperature, maxTokens, requestTime, out, nil)
	return out, nil
}

func (c *Client) createMessage(ctx context.Context, body messagesRequest) (*messagesResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)
	httpReq.Header.Set("User-Agent", version.Get().UserAgent())

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Type + ": " + apiErr.Error.Message
		}
		return nil, errors.Wrapf(&statusError{code: httpResp.StatusCode, message: msg}, "status %d", httpResp.StatusCode)
	}

	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return &out, nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		// 529 is Anthropic's "overloaded"
		return httpclient.IsRetryableStatus(se.code) || se.code == 529
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
		ModelProvider:     "anthropic",
		ModelConfig:       tracker.NewModelConfig(temperature, &maxTokens, req.JSONResponse),
		RequestTimestamp:  requestTime,
		ResponseTimestamp: &responseTime,
		Success:           callErr == nil,
	}
	if resp != nil {
		prompt, completion, total, cost := resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens, resp.Usage.Cost
		usage.PromptTokens = &prompt
		usage.CompletionTokens = &completion
		usage.TokensUsed = &total
		usage.Cost = &cost
	}
	if callErr != nil {
		msg := callErr.Error()
		usage.ErrorMessage = &msg
	}

	if err := c.usageTracker.TrackUsage(context.WithoutCancel(ctx), usage); err != nil {
		c.logger.Warnw("Failed to track model usage", logger.FieldError, err)
	}
}
