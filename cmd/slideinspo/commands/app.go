package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/ai/provider"
	"github.com/teranos/slideinspo/am"
	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/db"
	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/resolve"
	"github.com/teranos/slideinspo/storyline"
)

// app bundles the configuration and connections a command needs
type app struct {
	cfg       *am.Config
	db        *sql.DB // nil when database.path is empty
	client    ai.Client
	provider  provider.Provider
	verbosity int
	json      bool
	log       *zap.SugaredLogger
}

// newApp loads and validates configuration, opens the database and builds the
// model client
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{cfg: cfg, log: logger.Logger}
	a.verbosity, _ = cmd.Flags().GetCount("verbose")
	a.json = display.ShouldOutputJSON(cmd)

	if cfg.Database.Path != "" {
		a.db, err = db.OpenAndMigrate(cfg.Database.Path, logger.ComponentLogger("db"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to open database")
		}
	}

	a.client, a.provider, err = provider.NewClient(cfg, provider.ClientConfig{
		DB:     a.db,
		Logger: logger.ComponentLogger("ai"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the database
func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// loadContext connects to the graph once and loads the matching context
func (a *app) loadContext(ctx context.Context, query string) (graph.Context, error) {
	store, err := graph.Open(ctx, graph.StoreConfig{
		URL:      a.cfg.Graph.URL,
		Username: a.cfg.Graph.Username,
		Password: a.cfg.Graph.Password,
		Database: a.cfg.Graph.Database,
		Timeout:  time.Duration(a.cfg.Graph.TimeoutSeconds) * time.Second,
		Logger:   logger.ComponentLogger("graph"),
	})
	if err != nil {
		return graph.Context{}, err
	}
	defer store.Close(context.WithoutCancel(ctx))

	if query == "" {
		query = a.cfg.Graph.Query
	}
	return graph.LoadContext(ctx, store, query, logger.ComponentLogger("graph"))
}

func (a *app) generator() *storyline.Generator {
	return storyline.NewGenerator(storyline.Config{
		Client:   a.client,
		MaxCount: a.cfg.Slides.MaxCount,
		Logger:   logger.ComponentLogger("storyline"),
	})
}

func (a *app) resolver() *resolve.Resolver {
	return resolve.New(resolve.Config{Client: a.client, Logger: logger.ComponentLogger("resolve")})
}

func (a *app) markup() *artifact.Markup {
	temperature := a.cfg.LLM.MarkupTemperature
	return &artifact.Markup{
		Client:      a.client,
		Temperature: &temperature,
		MaxTokens:   a.cfg.LLM.MarkupMaxTokens,
		Logger:      logger.ComponentLogger("markup"),
	}
}

func (a *app) emitter() pipeline.Emitter {
	// stdout carries the result, progress goes to stderr as JSON lines
	if a.json {
		return pipeline.NewJSONEmitter(os.Stderr)
	}
	return pipeline.NewCLIEmitter(a.verbosity)
}

func (a *app) orchestrator(mode pipeline.Mode, gc graph.Context) (*pipeline.Orchestrator, error) {
	return pipeline.New(pipeline.Config{
		Mode:        mode,
		Context:     gc,
		Resolver:    a.resolver(),
		Images:      artifact.ImagePath{BaseDir: a.cfg.Slides.BaseDir},
		Markup:      a.markup(),
		Parallelism: a.cfg.Pipeline.Parallelism,
		Limiter:     pipeline.NewLimiter(a.cfg.Pipeline.RequestsPerMinute),
		Emitter:     a.emitter(),
		Logger:      logger.ComponentLogger("pipeline"),
	})
}
