package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

// coefficientsView is what the coefficients command prints.
type coefficientsView struct {
	RefreshedAt  *time.Time    `json:"refreshed_at,omitempty" yaml:"refreshed_at,omitempty"`
	Coefficients *carbon.Table `json:"coefficients" yaml:"coefficients"`
}

func newCoefficientsCmd(a *app) *cobra.Command {
	var (
		refresh bool
		offline bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "coefficients",
		Short: "Show the emission factors in use",
		Long: `Prints the emission factor table. The electricity rate comes from the
grid-intensity feed when it is reachable and from the built-in fallback
otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			var view coefficientsView
			if offline {
				view.Coefficients = carbon.FallbackTable()
			} else {
				store := a.newStore(nil)
				if refresh {
					view.Coefficients = store.Refresh(ctx)
				} else {
					view.Coefficients = store.Current(ctx)
				}
				refreshedAt := store.LastRefresh()
				view.RefreshedAt = &refreshedAt
			}
			return writeCoefficients(cmd.OutOrStdout(), view, output)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "force a grid-intensity refresh before printing")
	cmd.Flags().BoolVar(&offline, "offline", false, "print the built-in fallback table")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func writeCoefficients(w io.Writer, view coefficientsView, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding coefficients: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encoding coefficients: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
