// Package server exposes the slide pipeline over HTTP: one session holding the
// current storyline and its resolved slides, plus websocket progress.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/history"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/resolve"
	"github.com/teranos/slideinspo/storyline"
	"github.com/teranos/slideinspo/sym"
)

// Config configures a Server
type Config struct {
	Client  ai.Client
	Context graph.Context

	ImageDir          string
	DefaultCount      int
	MaxCount          int // 0 = unlimited
	Mode              pipeline.Mode
	Parallelism       int
	RequestsPerMinute int
	MarkupTemperature *float64
	MarkupMaxTokens   int

	History        *history.Store // nil = runs are not recorded
	AllowedOrigins []string
	Logger         *zap.SugaredLogger
}

// session is the state a user builds up: a storyline, then its slides
type session struct {
	runID     string
	storyline *storyline.Storyline
	batch     *pipeline.Batch
}

// clientBox lets atomic.Value hold any ai.Client implementation
type clientBox struct {
	client ai.Client
}

// Server serves the HTTP API
type Server struct {
	cfg     Config
	client  atomic.Value // clientBox
	limiter *rate.Limiter
	hub     *Hub
	logger  *zap.SugaredLogger
	handler http.Handler

	mu      sync.Mutex
	session session
}

// New creates a Server
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.NewInvalidRequestError("server needs a model client")
	}
	mode, err := pipeline.ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	if cfg.DefaultCount < 1 {
		cfg.DefaultCount = 5
	}

	log := logger.OrNop(cfg.Logger)
	s := &Server{
		cfg:     cfg,
		limiter: pipeline.NewLimiter(cfg.RequestsPerMinute),
		hub:     NewHub(cfg.AllowedOrigins, log),
		logger:  log,
	}
	s.client.Store(clientBox{client: cfg.Client})
	s.handler = s.routes()
	return s, nil
}

// SetClient swaps the model client used by subsequent requests
func (s *Server) SetClient(c ai.Client) {
	if c == nil {
		return
	}
	s.client.Store(clientBox{client: c})
	s.logger.Infow("Model client replaced", logger.FieldSymbol, sym.AM)
}

func (s *Server) currentClient() ai.Client {
	return s.client.Load().(clientBox).client
}

// Handler returns the HTTP handler with all routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the websocket progress hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Infow("Server ready",
		logger.FieldSymbol, sym.Server,
		logger.FieldAddress, "http://"+ln.Addr().String(),
		logger.FieldCount, s.cfg.Context.Len(),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.logger.Infow("Shutting down server", logger.FieldSymbol, sym.Server)
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown failed")
	}
	return nil
}

func (s *Server) generator() *storyline.Generator {
	return storyline.NewGenerator(storyline.Config{
		Client:   s.currentClient(),
		MaxCount: s.cfg.MaxCount,
		Logger:   s.logger.Named("storyline"),
	})
}

func (s *Server) orchestrator(mode pipeline.Mode) (*pipeline.Orchestrator, error) {
	client := s.currentClient()
	return pipeline.New(pipeline.Config{
		Mode:     mode,
		Context:  s.cfg.Context,
		Resolver: resolve.New(resolve.Config{Client: client, Logger: s.logger.Named("resolve")}),
		Images:   artifact.ImagePath{BaseDir: s.cfg.ImageDir},
		Markup: &artifact.Markup{
			Client:      client,
			Temperature: s.cfg.MarkupTemperature,
			MaxTokens:   s.cfg.MarkupMaxTokens,
			Logger:      s.logger.Named("markup"),
		},
		Parallelism: s.cfg.Parallelism,
		Limiter:     s.limiter,
		Emitter:     s.hub,
		Logger:      s.logger.Named("pipeline"),
	})
}
