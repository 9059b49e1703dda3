package storyline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/sym"
)

// Config configures a Generator
type Config struct {
	Client   ai.Client
	MaxCount int // 0 = unlimited
	Logger   *zap.SugaredLogger
}

// Generator asks the model for a storyline
type Generator struct {
	client   ai.Client
	maxCount int
	logger   *zap.SugaredLogger
}

// NewGenerator creates a Generator
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		client:   cfg.Client,
		maxCount: cfg.MaxCount,
		logger:   logger.OrNop(cfg.Logger),
	}
}

// Generate makes one model call and parses the answer strictly.
// Invalid input wraps errors.ErrInvalidRequest, call failures
// errors.ErrTransport and unusable answers errors.ErrMalformedStoryline.
func (g *Generator) Generate(ctx context.Context, topic string, count int) (*Storyline, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.NewInvalidRequestError("topic is empty")
	}
	if count < 1 {
		return nil, errors.NewInvalidRequestError("slide count must be at least 1, got %d", count)
	}
	if g.maxCount > 0 && count > g.maxCount {
		return nil, errors.NewInvalidRequestError("slide count %d exceeds the maximum of %d", count, g.maxCount)
	}

	log := logger.FromContext(ctx, g.logger)
	start := time.Now()

	resp, err := g.client.Chat(ctx, ai.ChatRequest{
		SystemPrompt: BuildSystemPrompt(topic, count),
		UserPrompt:   topic,
		Temperature:  ai.Float64(0),
		JSONResponse: true,
		Operation:    ai.OperationStoryline,
	})
	if err != nil {
		return nil, errors.MarkTransport(errors.Wrap(err, "storyline request failed"))
	}
	if resp == nil {
		return nil, errors.MarkTransport(errors.New("storyline request failed: empty model response"))
	}

	s, err := Parse(topic, resp.Content, count)
	if err != nil {
		log.Warnw("Model returned an unusable storyline",
			logger.FieldTopic, topic,
			logger.FieldCount, count,
			logger.FieldError, err,
		)
		return nil, errors.WithDetailf(err, "response: %s", resp.Content)
	}

	log.Infow("Storyline generated",
		logger.FieldSymbol, sym.Storyline,
		logger.FieldTopic, topic,
		logger.FieldCount, s.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return s, nil
}
