// Package server exposes Chameleon's generation, rewrite and screenshot
// analysis over HTTP, plus an optional shared theme hub.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/metrics"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
)

// maxBodyBytes bounds request bodies; screenshots arrive base64 encoded.
const maxBodyBytes = 16 << 20

// Options wires a Server.
type Options struct {
	Generator ports.Generator
	Rewriter  ports.Rewriter
	Extractor ports.Extractor
	Registry  *presets.Registry
	Hub       *Hub
	Metrics   *metrics.Collector
	Logger    *logger.Logger
}

// Server serves the Chameleon HTTP API.
type Server struct {
	gen       ports.Generator
	rewriter  ports.Rewriter
	extractor ports.Extractor
	registry  *presets.Registry
	hub       *Hub
	metrics   *metrics.Collector
	log       *logger.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		gen:       opts.Generator,
		rewriter:  opts.Rewriter,
		extractor: opts.Extractor,
		registry:  opts.Registry,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
	if s.registry == nil {
		s.registry = presets.Builtin()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/vibe", s.handleVibe)
	mux.HandleFunc("GET /api/vibe", s.handleVibeUsage)
	mux.HandleFunc("POST /api/rewrite", s.handleRewrite)
	mux.HandleFunc("GET /api/rewrite", s.handleRewriteUsage)
	mux.HandleFunc("POST /api/chameleon/analyze-image", s.handleAnalyzeImage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.hub != nil {
		mux.HandleFunc("GET /api/theme", s.hub.handleGet)
		mux.HandleFunc("POST /api/theme", s.hub.handlePost)
		mux.HandleFunc("DELETE /api/theme", s.hub.handleDelete)
		mux.HandleFunc("GET /api/theme/watch", s.hub.handleWatch)
	}

	return s.instrument(mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.With("addr", addr).Info("chameleon api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("chameleon api stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
