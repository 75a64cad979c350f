// Package api exposes the orchestrator over a minimal net/http
// transport. It is deliberately thin: no auth, no rate limiting, no
// request framing beyond what ServeMux and encoding/json give for
// free. Those concerns belong to the gateway in front of this
// service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/orchestrator"
	"github.com/intentguard/intentguard/internal/store"
)

// Server wires the orchestrator and the store behind the analysis
// endpoints.
type Server struct {
	orc *orchestrator.Orchestrator
	st  *store.Store
	srv *http.Server
}

// New builds a Server listening at addr.
func New(addr string, orc *orchestrator.Orchestrator, st *store.Store) *Server {
	s := &Server{orc: orc, st: st}
	mux := http.NewServeMux()
	s.routes(mux)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// routes registers the analysis endpoints, using Go 1.22+ ServeMux
// method and path-parameter patterns.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/analysis/{id}", s.handleGetAnalysis)
	mux.HandleFunc("POST /api/analysis/{id}/feedback", s.handleFeedback)
	mux.HandleFunc("GET /api/patterns", s.handlePatterns)
	mux.HandleFunc("GET /api/analyses", s.handleListAnalyses)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// ListenAndServe starts the server; it blocks until the server stops.
func (s *Server) ListenAndServe() error {
	logging.Infof(logging.CategoryAPI, "listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight Phase A
// requests to finish. It never waits for outstanding Phase B tasks: a
// caller disconnect does not cancel Phase B, and the same holds for
// server shutdown. The record resolves independently.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
