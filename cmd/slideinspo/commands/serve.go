package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/ai/provider"
	"github.com/teranos/slideinspo/am"
	"github.com/teranos/slideinspo/history"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/server"
	"github.com/teranos/slideinspo/sym"
)

// ServeCmd starts the HTTP server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   sym.Server + " Start the HTTP server",
	Long: sym.Server + ` serve — the slide pipeline over HTTP

The graph context is loaded once at startup; the server refuses to start
without it. Changes to am.toml swap the model client without a restart.

Routes:
  POST   /api/storyline   {"topic": "...", "count": 5}
  POST   /api/slides      {"mode": "image" | "markup"}
  GET    /api/slides/{n}  slide n of the current session (1-based)
  GET    /api/session     current storyline and slides
  DELETE /api/session     start over
  GET    /api/context     graph context
  GET    /api/runs        recorded runs
  GET    /slides/{file}   slide images
  GET    /ws              progress events
  GET    /health

Examples:
  slideinspo serve
  slideinspo serve --port 9000 -v`,
	RunE: runServe,
}

var servePort int

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gc, err := a.loadContext(ctx, "")
	if err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(a.cfg.Pipeline.Mode)
	if err != nil {
		return err
	}
	temperature := a.cfg.LLM.MarkupTemperature
	cfg := server.Config{
		Client:            a.client,
		Context:           gc,
		ImageDir:          a.cfg.Slides.BaseDir,
		DefaultCount:      a.cfg.Slides.DefaultCount,
		MaxCount:          a.cfg.Slides.MaxCount,
		Mode:              mode,
		Parallelism:       a.cfg.Pipeline.Parallelism,
		RequestsPerMinute: a.cfg.Pipeline.RequestsPerMinute,
		MarkupTemperature: &temperature,
		MarkupMaxTokens:   a.cfg.LLM.MarkupMaxTokens,
		AllowedOrigins:    a.cfg.GetServerAllowedOrigins(),
		Logger:            logger.ComponentLogger("server"),
	}
	if a.db != nil {
		cfg.History = history.NewStore(a.db)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	watcher, err := am.Watch(func(next *am.Config) error {
		client, p, err := provider.NewClient(next, provider.ClientConfig{DB: a.db, Logger: logger.ComponentLogger("ai")})
		if err != nil {
			return err
		}
		srv.SetClient(client)
		a.log.Infow("Configuration reloaded", logger.FieldSymbol, sym.AM, logger.FieldProvider, string(p))
		return nil
	})
	if err != nil {
		a.log.Warnw("Config watcher disabled", logger.FieldError, err)
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	port := a.cfg.GetServerPort()
	if servePort != 0 {
		port = servePort
	}
	if !a.json {
		pterm.Info.Printf("%s serving %d slides on http://localhost:%d (provider %s)\n", sym.Server, gc.Len(), port, a.provider)
	}
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}
