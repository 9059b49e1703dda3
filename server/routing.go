package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/slideinspo/logger"
)

// routes configures all HTTP handlers
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/storyline", s.HandleStoryline)  // Generate a storyline, starting a new session
	mux.HandleFunc("POST /api/slides", s.HandleResolveSlides) // Resolve every storypoint of the session storyline
	mux.HandleFunc("GET /api/slides/{n}", s.HandleSlide)      // One resolved slide by 1-based ordinal
	mux.HandleFunc("GET /api/session", s.HandleSession)       // Current storyline and slides
	mux.HandleFunc("DELETE /api/session", s.HandleReset)      // Forget storyline and slides
	mux.HandleFunc("GET /api/context", s.HandleContext)       // Graph context used for matching
	mux.HandleFunc("GET /api/runs", s.HandleRuns)             // Recorded runs, newest first
	mux.HandleFunc("GET /api/runs/{id}", s.HandleRun)         // One recorded run with its items
	mux.HandleFunc("GET /slides/{file}", s.HandleSlideImage)  // Pre-rendered slide images
	mux.HandleFunc("GET /ws", s.hub.ServeWS)                  // Pipeline progress events
	mux.HandleFunc("GET /health", s.HandleHealth)

	return s.corsMiddleware(s.requestLogger(mux))
}

// corsMiddleware adds CORS headers for configured origins and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(origin, s.cfg.AllowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController (websocket hijacking)
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger tags each request with an ID and logs it on completion
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// the upgrader needs the original writer to hijack the connection
			next.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.FromContext(ctx, s.logger).Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, rec.status,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	})
}
