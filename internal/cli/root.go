// Package cli implements the footprint command line.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/footprint-estimator/internal/carbon"
	"github.com/rshade/footprint-estimator/internal/config"
	"github.com/rshade/footprint-estimator/internal/metrics"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    config.Config
	logger zerolog.Logger
}

// NewRootCmd creates the root footprint command.
func NewRootCmd(version string) *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "footprint",
		Short:         "Personal carbon footprint estimator",
		Long:          "footprint estimates an individual's yearly carbon footprint in kgCO2e from lifestyle answers.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.AddCommand(
		newServeCmd(a),
		newQuickCmd(a),
		newDetailedCmd(a),
		newCoefficientsCmd(a),
	)

	return cmd
}

const rootCmdExample = `  # Quick estimate from three answers
  footprint quick --commute scooter_gas --diet meat_heavy --shopping medium

  # Detailed estimate from a JSON file
  footprint detailed --file household.json

  # Show the emission factors in use, refreshing the grid intensity first
  footprint coefficients --refresh

  # Run the HTTP API
  footprint serve --config footprint.yaml`

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	bootstrap := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel)

	cfg, err := config.Load(a.configPath, bootstrap)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}

	a.cfg = cfg
	a.logger = config.NewLogger(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// newStore builds a coefficient store fed from the configured grid feed.
func (a *app) newStore(m *metrics.Metrics) *carbon.Store {
	feed := carbon.NewHTTPGridFeed(a.cfg.Feed.URL, a.logger)
	feed.Encoding = a.cfg.Feed.Encoding

	opts := []carbon.StoreOption{
		carbon.WithTTL(a.cfg.Feed.CoefficientTTL),
		carbon.WithFetchTimeout(a.cfg.Feed.FetchTimeout),
		carbon.WithLogger(a.logger),
	}
	if m != nil {
		opts = append(opts, carbon.WithRefreshObserver(m))
	}
	return carbon.NewStore(feed, opts...)
}

// source returns the fallback table when offline, a fresh store otherwise.
func (a *app) source(offline bool) carbon.CoefficientSource {
	if offline {
		return carbon.FallbackTable()
	}
	return a.newStore(nil)
}

func (a *app) suggester() carbon.Suggester {
	if a.cfg.Suggestions == config.SuggestionsPool {
		return carbon.NewPoolSuggester(nil)
	}
	return carbon.RuleSuggester{}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
