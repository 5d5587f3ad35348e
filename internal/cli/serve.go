package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/footprint-estimator/internal/config"
	"github.com/rshade/footprint-estimator/internal/history"
	"github.com/rshade/footprint-estimator/internal/metrics"
	"github.com/rshade/footprint-estimator/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the footprint HTTP API",
		Long: `Runs the JSON HTTP API:

  POST /api/calculate/quick      quick estimate
  POST /api/calculate/detailed   detailed estimate
  GET  /api/calculate/history    estimates of the calling user
  GET  /api/coefficients         emission factors in use
  GET  /healthz, GET /metrics

Callers identify themselves with the X-User-ID header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	repo, err := openHistory(ctx, a.cfg.History, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing history failed")
		}
	}()

	m := metrics.New()
	store := a.newStore(m)
	// Warm the table so the first request does not wait on the feed.
	store.Current(ctx)

	srv := server.New(server.Options{
		Source:    store,
		Suggester: a.suggester(),
		History:   repo,
		Metrics:   m,
		CORS:      a.cfg.CORS,
		Logger:    a.logger,
	})
	return srv.ListenAndServe(ctx, a.cfg.ListenAddr)
}

// openHistory opens the configured history backend.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger zerolog.Logger) (history.Repository, error) {
	switch cfg.Backend {
	case config.HistoryMemory, "":
		return history.NewMemoryRepository(), nil
	case config.HistoryFile:
		return history.NewFileRepository(cfg.Path, logger)
	case config.HistoryPostgres:
		return history.NewPostgresRepository(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
