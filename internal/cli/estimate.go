package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

func newQuickCmd(a *app) *cobra.Command {
	var (
		in      carbon.QuickInput
		asJSON  bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Estimate a footprint from three answers",
		Long: `Estimates a yearly footprint from the commute mode, diet pattern and
shopping tier. Unknown or omitted answers use the category default.

Commute: scooter_gas, scooter_electric, car_gas, car_electric, public, bike
Diet:    meat_heavy, balanced, convenience, vegetarian
Shopping: low, medium, high`,
		Example: `  footprint quick --commute public --diet balanced --shopping low --json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			estimator := carbon.NewQuickEstimator(a.source(offline), a.suggester())
			result := estimator.Estimate(commandContext(cmd), in)
			return writeResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().StringVar(&in.Commute, "commute", "", "main commute mode")
	cmd.Flags().StringVar(&in.Diet, "diet", "", "diet pattern")
	cmd.Flags().StringVar(&in.Shopping, "shopping", "", "shopping tier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in emission factors without fetching the grid feed")
	return cmd
}

func newDetailedCmd(a *app) *cobra.Command {
	var (
		file    string
		asJSON  bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "detailed",
		Short: "Estimate a footprint from a detailed JSON input",
		Long: `Estimates a yearly footprint from monthly energy, transport and spending
figures and weekly meal and waste counts, read as JSON from --file
("-" reads standard input). Numbers may be given as JSON numbers or strings.`,
		Example: `  footprint detailed --file household.json
  cat household.json | footprint detailed --file - --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readDetailedInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			estimator := carbon.NewDetailedEstimator(a.source(offline), a.suggester())
			result, err := estimator.Estimate(commandContext(cmd), in)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON input file, or "-" for standard input`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in emission factors without fetching the grid feed")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDetailedInput(stdin io.Reader, file string) (carbon.DetailedInput, error) {
	var (
		data []byte
		err  error
	)
	switch file {
	case "":
		return carbon.DetailedInput{}, errors.New("--file is required")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return carbon.DetailedInput{}, fmt.Errorf("reading detailed input: %w", err)
	}

	var in carbon.DetailedInput
	if err := json.Unmarshal(data, &in); err != nil {
		return carbon.DetailedInput{}, fmt.Errorf("parsing detailed input: %w", err)
	}
	return in, nil
}

// writeResult prints result as indented JSON or as a small table.
func writeResult(w io.Writer, result carbon.Result, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s estimate: %.1f kgCO2e/year\n\n", result.Mode, result.Total)
	for _, e := range result.Breakdown.Entries() {
		fmt.Fprintf(&b, "  %-12s %10.1f\n", e.Category, e.Value)
	}
	fmt.Fprintf(&b, "\n%s\n", result.Suggestion)

	_, err := io.WriteString(w, b.String())
	return err
}
