package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/onramp/pkg/service/worker"
	"github.com/secmon-lab/onramp/pkg/utils/async"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// Server is the operational HTTP surface: liveness and scheduler
// status. The bot chat transport is not served here.
type Server struct {
	router      chi.Router
	workers     []worker.Worker
	syncTrigger func(ctx context.Context) error
}

// Options is a functional option for Server configuration
type Options func(*Server)

// WithWorkers registers scheduler loops for the status endpoint
func WithWorkers(workers ...worker.Worker) Options {
	return func(s *Server) {
		s.workers = append(s.workers, workers...)
	}
}

// WithSyncTrigger enables POST /api/sync, which kicks a roster
// reconciliation outside the scheduler cadence
func WithSyncTrigger(f func(ctx context.Context) error) Options {
	return func(s *Server) {
		s.syncTrigger = f
	}
}

// New creates the ops HTTP handler
func New(opts ...Options) *Server {
	s := &Server{
		router: chi.NewRouter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)
	if s.syncTrigger != nil {
		s.router.Post("/api/sync", s.handleSync)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logging.From(r.Context()).Error("failed to write health response", "error", err.Error())
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	// Accept immediately; reconciliation can take a while against the
	// directory API.
	w.WriteHeader(http.StatusAccepted)

	async.Dispatch(r.Context(), func(ctx context.Context) error {
		logging.From(ctx).Info("roster sync requested via API")
		return s.syncTrigger(ctx)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statuses := make([]worker.Status, 0, len(s.workers))
	for _, wk := range s.workers {
		statuses = append(statuses, wk.Status())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"schedulers": statuses}); err != nil {
		logging.From(r.Context()).Error("failed to encode status response", "error", err.Error())
	}
}
