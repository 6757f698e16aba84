// Package httpapi exposes the monitoring engine over a small HTTP surface:
// event ingestion, reports, exports and operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/faultline/internal/monitor"
)

// Server serves the ingest and reporting API for one engine instance.
type Server struct {
	engine     *monitor.Engine
	logger     *zap.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// New creates a server bound to addr.
func New(addr string, engine *monitor.Engine, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		engine: engine,
		logger: logger,
		mux:    mux,
	}
	s.registerRoutes()

	handler := Chain(mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger, []string{"/healthz", "/metrics"}),
		RateLimitMiddleware(100, 200, []string{"/healthz", "/metrics"}),
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("POST /api/events", s.handleTrackEvent)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events/{id}/resolve", s.handleResolveEvent)
	s.mux.HandleFunc("GET /api/incidents", s.handleIncidents)
	s.mux.HandleFunc("POST /api/incidents/{id}/resolve", s.handleResolveIncident)
	s.mux.HandleFunc("GET /api/report", s.handleReport)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/export", s.handleExport)
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n")) //nolint:errcheck
}
