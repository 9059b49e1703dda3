// Package resolve matches a storypoint to the most related slide in the graph context.
package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/slide"
	"github.com/teranos/slideinspo/sym"
)

// Status is the outcome of a resolution
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found" // the model answered without an identifier
	StatusFailed   Status = "failed"    // the model call itself failed
)

// Resolution is the result of matching one storypoint
type Resolution struct {
	Status Status
	ID     slide.ID // set when Status is StatusFound
	Raw    string   // the model's answer, when there was one
	Err    error    // set when Status is StatusFailed
}

// Found reports StatusFound
func (r Resolution) Found() bool {
	return r.Status == StatusFound
}

// AsError returns nil when found, an error marked errors.ErrNotFound when the
// model named no slide, and the call failure otherwise
func (r Resolution) AsError() error {
	switch r.Status {
	case StatusFound:
		return nil
	case StatusFailed:
		if r.Err != nil {
			return r.Err
		}
		return errors.MarkTransport(errors.New("slide resolution failed"))
	default:
		return errors.Wrapf(errors.ErrNotFound, "no slide identifier in answer %q", r.Raw)
	}
}

// Config configures a Resolver
type Config struct {
	Client ai.Client
	Logger *zap.SugaredLogger
}

// Resolver asks the model to pick a slide for a storypoint
type Resolver struct {
	client ai.Client
	logger *zap.SugaredLogger
}

// New creates a Resolver
func New(cfg Config) *Resolver {
	return &Resolver{
		client: cfg.Client,
		logger: logger.OrNop(cfg.Logger),
	}
}

// Resolve matches storypoint against gc. It never returns an error: failures
// are reported in the Resolution.
func (r *Resolver) Resolve(ctx context.Context, storypoint string, gc graph.Context) Resolution {
	return r.ask(ctx, UserPrompt(storypoint), storypoint, gc)
}

func (r *Resolver) ask(ctx context.Context, userPrompt, storypoint string, gc graph.Context) Resolution {
	log := logger.FromContext(ctx, r.logger)
	start := time.Now()

	resp, err := r.client.Chat(ctx, ai.ChatRequest{
		SystemPrompt: BuildSystemPrompt(gc),
		UserPrompt:   userPrompt,
		Temperature:  ai.Float64(0),
		Operation:    ai.OperationResolve,
	})
	if err != nil {
		log.Warnw("Slide resolution failed",
			logger.FieldStorypoint, storypoint,
			logger.FieldError, err,
		)
		return Resolution{
			Status: StatusFailed,
			Err:    errors.MarkTransport(errors.Wrapf(err, "resolve %q", storypoint)),
		}
	}

	if resp == nil {
		log.Warnw("Slide resolution returned no response", logger.FieldStorypoint, storypoint)
		return Resolution{
			Status: StatusFailed,
			Err:    errors.MarkTransport(errors.Newf("resolve %q: empty model response", storypoint)),
		}
	}

	log.Debugw("Resolver answer", logger.FieldStorypoint, storypoint, "answer", resp.Content)

	id, ok := slide.Extract(resp.Content)
	if !ok {
		log.Infow("No slide identifier in answer",
			logger.FieldSymbol, sym.Missing,
			logger.FieldStorypoint, storypoint,
		)
		return Resolution{Status: StatusNotFound, Raw: resp.Content}
	}
	if all := slide.ExtractAll(resp.Content); len(all) > 1 {
		log.Debugw("Several slide identifiers in answer, using the first",
			logger.FieldStorypoint, storypoint,
			logger.FieldSlide, id.String(),
			logger.FieldCount, len(all),
		)
	}

	log.Infow("Slide resolved",
		logger.FieldSymbol, sym.Slide,
		logger.FieldStorypoint, storypoint,
		logger.FieldSlide, id.String(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return Resolution{Status: StatusFound, ID: id, Raw: resp.Content}
}
