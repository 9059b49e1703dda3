package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/history"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/slide"
	"github.com/teranos/slideinspo/storyline"
	"github.com/teranos/slideinspo/version"
)

// StorylineRequest is the body of POST /api/storyline
type StorylineRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count,omitempty"` // 0 = configured default
}

// StorylineResponse describes a generated storyline
type StorylineResponse struct {
	RunID       string            `json:"run_id,omitempty"`
	Topic       string            `json:"topic"`
	Entries     []storyline.Entry `json:"entries"`
	Storypoints []string          `json:"storypoints"`
	Pretty      string            `json:"pretty"`
}

// ResolveRequest is the body of POST /api/slides
type ResolveRequest struct {
	Mode string `json:"mode,omitempty"` // image or markup; empty = configured mode
}

// SlideResponse is one resolved slide
type SlideResponse struct {
	pipeline.Item
	Ordinal int    `json:"ordinal"`
	URL     string `json:"url,omitempty"` // image URL served by this server
}

// SessionResponse is the current session state
type SessionResponse struct {
	RunID     string             `json:"run_id,omitempty"`
	Storyline *StorylineResponse `json:"storyline,omitempty"`
	Batch     *pipeline.Batch    `json:"batch,omitempty"`
}

// ContextResponse lists the graph context
type ContextResponse struct {
	Count int           `json:"count"`
	Pairs graph.Context `json:"pairs"`
}

func newStorylineResponse(runID string, s *storyline.Storyline) *StorylineResponse {
	return &StorylineResponse{
		RunID:       runID,
		Topic:       s.Topic,
		Entries:     s.Entries,
		Storypoints: s.Storypoints(),
		Pretty:      s.Pretty(),
	}
}

// HandleStoryline generates a storyline and replaces the session with it
func (s *Server) HandleStoryline(w http.ResponseWriter, r *http.Request) {
	var req StorylineRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.Count == 0 {
		req.Count = s.cfg.DefaultCount
	}

	sl, err := s.generator().Generate(r.Context(), req.Topic, req.Count)
	if err != nil {
		logger.FromContext(r.Context(), s.logger).Warnw("Storyline generation failed",
			logger.FieldTopic, req.Topic,
			logger.FieldError, err,
		)
		writeErr(w, err)
		return
	}

	runID := s.recordRun(r, sl)

	s.mu.Lock()
	s.session = session{runID: runID, storyline: sl}
	s.mu.Unlock()

	_ = writeJSON(w, http.StatusOK, newStorylineResponse(runID, sl))
}

// recordRun stores the storyline when history is enabled. History failures
// are logged, never returned.
func (s *Server) recordRun(r *http.Request, sl *storyline.Storyline) string {
	if s.cfg.History == nil {
		return ""
	}
	runID, err := s.cfg.History.StartRun(r.Context(), sl, s.cfg.Mode)
	if err != nil {
		logger.FromContext(r.Context(), s.logger).Warnw("Failed to record run", logger.FieldError, err)
		return ""
	}
	return runID
}

// HandleResolveSlides resolves the session storyline. The session is not
// locked while the batch runs; the result is dropped if the storyline was
// replaced in the meantime.
func (s *Server) HandleResolveSlides(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		return
	}
	mode := s.cfg.Mode
	if req.Mode != "" {
		m, err := pipeline.ParseMode(req.Mode)
		if err != nil {
			writeErr(w, err)
			return
		}
		mode = m
	}

	s.mu.Lock()
	current := s.session
	s.mu.Unlock()
	if current.storyline == nil {
		writeError(w, http.StatusConflict, "no storyline yet: POST /api/storyline first")
		return
	}

	orch, err := s.orchestrator(mode)
	if err != nil {
		writeErr(w, err)
		return
	}

	ctx := r.Context()
	if current.runID != "" {
		ctx = logger.WithRunID(ctx, current.runID)
	}
	batch, err := orch.ResolveAll(ctx, current.storyline)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.mu.Lock()
	if s.session.storyline != current.storyline {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "storyline changed while resolving")
		return
	}
	s.session.batch = batch
	s.mu.Unlock()

	if s.cfg.History != nil && current.runID != "" {
		if err := s.cfg.History.SaveBatch(ctx, current.runID, batch); err != nil {
			logger.FromContext(ctx, s.logger).Warnw("Failed to record batch", logger.FieldError, err)
		}
	}

	_ = writeJSON(w, http.StatusOK, batch)
}

// HandleSlide returns one slide of the current batch by 1-based ordinal
func (s *Server) HandleSlide(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "slide number must be an integer")
		return
	}

	s.mu.Lock()
	batch := s.session.batch
	s.mu.Unlock()
	if batch == nil {
		writeError(w, http.StatusNotFound, "no slides resolved yet: POST /api/slides first")
		return
	}

	item, err := batch.Ordinal(n)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := SlideResponse{Item: item, Ordinal: n}
	if item.Slide != nil && item.Artifact.Path != "" {
		resp.URL = "/slides/" + item.Slide.FileName()
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// HandleSession returns the current session
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	current := s.session
	s.mu.Unlock()

	resp := SessionResponse{RunID: current.runID, Batch: current.batch}
	if current.storyline != nil {
		resp.Storyline = newStorylineResponse(current.runID, current.storyline)
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// HandleReset forgets the current storyline and slides
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.session = session{}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// HandleContext lists the graph context
func (s *Server) HandleContext(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, ContextResponse{Count: s.cfg.Context.Len(), Pairs: s.cfg.Context})
}

// HandleRuns lists recorded runs
func (s *Server) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.cfg.History.List(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	_ = writeJSON(w, http.StatusOK, runs)
}

// HandleRun returns one recorded run
func (s *Server) HandleRun(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	run, err := s.cfg.History.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, run)
}

// HandleSlideImage serves a pre-rendered slide. Only names of the form
// deck_XXX_slide_XXXX.png are served.
func (s *Server) HandleSlideImage(w http.ResponseWriter, r *http.Request) {
	id, err := slide.ParseFileName(r.PathValue("file"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not a slide image")
		return
	}
	path := filepath.Join(s.cfg.ImageDir, id.FileName())
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "slide image "+id.FileName()+" not found")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

// HandleHealth reports liveness and the loaded context size
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"version":       version.Version,
		"context_pairs": s.cfg.Context.Len(),
		"mode":          s.cfg.Mode,
		"ws_clients":    s.hub.ClientCount(),
		"history":       s.cfg.History != nil,
	})
}
