package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/resolve"
	"github.com/teranos/slideinspo/storyline"
)

// Resolver matches one storypoint against the graph context
type Resolver interface {
	Resolve(ctx context.Context, storypoint string, gc graph.Context) resolve.Resolution
}

// Config configures an Orchestrator. Resolver and Images are required in
// ModeImage, Markup in ModeMarkup.
type Config struct {
	Mode     Mode
	Context  graph.Context
	Resolver Resolver
	Images   artifact.Producer
	Markup   artifact.Producer

	Parallelism int           // <= 1 = sequential
	Limiter     *rate.Limiter // nil = unthrottled
	Emitter     Emitter
	Logger      *zap.SugaredLogger
}

// Orchestrator applies resolution and artifact production to a whole storyline
type Orchestrator struct {
	mode        Mode
	context     graph.Context
	resolver    Resolver
	images      artifact.Producer
	markup      artifact.Producer
	parallelism int
	limiter     *rate.Limiter
	logger      *zap.SugaredLogger

	emitMu  sync.Mutex
	emitter Emitter
}

// New validates cfg and creates an Orchestrator
func New(cfg Config) (*Orchestrator, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeImage:
		if cfg.Resolver == nil || cfg.Images == nil {
			return nil, errors.NewInvalidRequestError("image mode needs a resolver and an image producer")
		}
	case ModeMarkup:
		if cfg.Markup == nil {
			return nil, errors.NewInvalidRequestError("markup mode needs a markup producer")
		}
	}

	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = NopEmitter{}
	}

	return &Orchestrator{
		mode:        mode,
		context:     cfg.Context,
		resolver:    cfg.Resolver,
		images:      cfg.Images,
		markup:      cfg.Markup,
		parallelism: parallelism,
		limiter:     cfg.Limiter,
		logger:      logger.OrNop(cfg.Logger),
		emitter:     emitter,
	}, nil
}

// Mode returns the orchestrator's mode
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// ResolveAll produces one item per storyline entry, labelled "Slide 1".."Slide N"
// in storyline order. Items that cannot be resolved stay in the batch as
// missing. The only error is cancellation of ctx.
func (o *Orchestrator) ResolveAll(ctx context.Context, s *storyline.Storyline) (*Batch, error) {
	batch := newBatch(s, o.mode)
	batch.RunID = logger.RunIDFromContext(ctx)

	log := logger.FromContext(ctx, o.logger)
	start := time.Now()
	stage := "resolve"
	if o.mode == ModeMarkup {
		stage = "markup"
	}
	o.emitStage(stage, "processing slides")

	var err error
	if o.parallelism == 1 {
		err = o.runSequential(ctx, batch)
	} else {
		err = o.runParallel(ctx, batch)
	}
	if err != nil {
		o.emitError(stage, err)
		return nil, errors.Wrap(err, "batch interrupted")
	}

	summary := batch.Summary()
	o.emitComplete(summary)
	log.Infow("Batch complete",
		logger.FieldMode, o.mode,
		logger.FieldCount, summary.Total,
		"ok", summary.OK,
		"not_found", summary.NotFound,
		"failed", summary.Failed,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return batch, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, batch *Batch) error {
	for i := range batch.Items {
		if err := o.process(ctx, &batch.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// runParallel writes each result to its own index, so completion order does
// not affect batch order
func (o *Orchestrator) runParallel(ctx context.Context, batch *Batch) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i := range batch.Items {
		item := &batch.Items[i]
		g.Go(func() error {
			return o.process(gctx, item)
		})
	}
	return g.Wait()
}

// process fills item in place. It returns an error only when ctx is done.
func (o *Orchestrator) process(ctx context.Context, item *Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// burst smaller than one request; proceed unthrottled
			o.logger.Warnw("Rate limiter rejected request", logger.FieldError, err)
		}
	}

	if o.mode == ModeMarkup {
		o.produceMarkup(ctx, item)
	} else {
		o.produceImage(ctx, item)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	o.emitItem(*item)
	return nil
}

func (o *Orchestrator) produceImage(ctx context.Context, item *Item) {
	res := o.resolver.Resolve(ctx, item.Storypoint, o.context)
	switch res.Status {
	case resolve.StatusFound:
		id := res.ID
		a, err := o.images.Produce(ctx, artifact.Request{Storypoint: item.Storypoint, ID: &id})
		item.Slide = &id
		o.settle(item, a, err)
	case resolve.StatusFailed:
		item.Status = StatusFailed
		item.Error = res.AsError().Error()
	default:
		item.Status = StatusNotFound
		item.Error = res.AsError().Error()
	}
}

func (o *Orchestrator) produceMarkup(ctx context.Context, item *Item) {
	a, err := o.markup.Produce(ctx, artifact.Request{Storypoint: item.Storypoint})
	o.settle(item, a, err)
}

func (o *Orchestrator) settle(item *Item, a artifact.Artifact, err error) {
	switch {
	case err != nil:
		item.Status = StatusFailed
		item.Error = err.Error()
		item.Artifact = artifact.Missing
	case a.IsMissing():
		item.Status = StatusNotFound
		item.Artifact = artifact.Missing
	default:
		item.Status = StatusOK
		item.Artifact = a
	}
}

func (o *Orchestrator) emitStage(stage, message string) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.emitter.EmitStage(stage, message)
}

func (o *Orchestrator) emitItem(item Item) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.emitter.EmitItem(item)
}

func (o *Orchestrator) emitComplete(summary Summary) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.emitter.EmitComplete(summary)
}

func (o *Orchestrator) emitError(stage string, err error) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.emitter.EmitError(stage, err)
}

// NewLimiter converts a requests-per-minute budget into a limiter; 0 means nil
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
