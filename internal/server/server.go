// Package server exposes the footprint estimators as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/footprint-estimator/internal/carbon"
	"github.com/rshade/footprint-estimator/internal/config"
	"github.com/rshade/footprint-estimator/internal/history"
	"github.com/rshade/footprint-estimator/internal/metrics"
)

const (
	// UserIDHeader identifies the caller. Requests that persist or read
	// history are rejected without it.
	UserIDHeader = "X-User-ID"

	// RequestIDHeader carries the request id; one is generated when absent.
	RequestIDHeader = "X-Request-ID"

	// maxBodyBytes caps request bodies.
	maxBodyBytes = 64 << 10

	shutdownTimeout = 10 * time.Second
)

// Options holds the collaborators of a Server.
type Options struct {
	// Source supplies the coefficient table. Required.
	Source carbon.CoefficientSource

	// Suggester builds suggestions; nil uses carbon.RuleSuggester.
	Suggester carbon.Suggester

	// History persists estimates; nil keeps them in memory.
	History history.Repository

	// Metrics is optional; /metrics is only served when set.
	Metrics *metrics.Metrics

	CORS   config.CORSConfig
	Logger zerolog.Logger
}

// Server routes API requests to the estimators.
type Server struct {
	source   carbon.CoefficientSource
	quick    *carbon.QuickEstimator
	detailed *carbon.DetailedEstimator
	history  history.Repository
	metrics  *metrics.Metrics
	cors     config.CORSConfig
	logger   zerolog.Logger

	handler http.Handler
}

// New creates a Server and its routes.
func New(opts Options) *Server {
	repo := opts.History
	if repo == nil {
		repo = history.NewMemoryRepository()
	}

	s := &Server{
		source:   opts.Source,
		quick:    carbon.NewQuickEstimator(opts.Source, opts.Suggester),
		detailed: carbon.NewDetailedEstimator(opts.Source, opts.Suggester),
		history:  repo,
		metrics:  opts.Metrics,
		cors:     opts.CORS,
		logger:   opts.Logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/calculate/quick", s.handleQuick)
	mux.HandleFunc("POST /api/calculate/detailed", s.handleDetailed)
	mux.HandleFunc("GET /api/calculate/history", s.handleHistory)
	mux.HandleFunc("GET /api/coefficients", s.handleCoefficients)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handler = s.withRequestID(s.withAccessLog(s.withCORS(mux)))
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("starting footprint API")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
