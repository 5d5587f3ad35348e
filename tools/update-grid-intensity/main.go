// Package main provides a tool to update the fallback grid electricity
// intensity from the national grid-intensity feed.
//
// The tool fetches the feed, picks the latest period and rewrites
// internal/carbon/grid_intensity.go with the new value.
//
// Usage:
//
//	go run ./tools/update-grid-intensity [--dry-run] [--validate]
//
// Flags:
//
//	--dry-run   Print changes without writing to file
//	--validate  Validate the fetched value is within expected range
//	--output    Path to grid_intensity.go (default: ./internal/carbon/grid_intensity.go)
//	--url       Feed URL (default: the Taipower emission factor CSV)
//	--encoding  Feed text encoding, utf-8 or big5
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/footprint-estimator/internal/carbon"
	"github.com/rshade/footprint-estimator/internal/config"
)

const (
	fetchTimeout = 30 * time.Second

	// Feed periods below this are years in the Minguo calendar.
	minguoOffset = 1911

	// Template for generating grid_intensity.go
	fileTemplate = `package carbon

// FallbackGridIntensity is the national grid electricity intensity in kgCO2e per kWh,
// used when the grid-intensity feed is unavailable.
//
// Source: Taipower open data, electricity emission factor by year
// Data vintage: %d (update using: go run ./tools/update-grid-intensity)
const FallbackGridIntensity = %s
`
)

// options are the parsed command-line flags.
type options struct {
	dryRun   bool
	validate bool
	output   string
	url      string
	encoding string
}

func main() {
	var opts options
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Print changes without writing to file")
	flag.BoolVar(&opts.validate, "validate", true, "Validate the fetched value is within expected range")
	flag.StringVar(&opts.output, "output", "./internal/carbon/grid_intensity.go", "Path to grid_intensity.go")
	flag.StringVar(&opts.url, "url", config.DefaultGridFeedURL, "Grid-intensity feed URL")
	flag.StringVar(&opts.encoding, "encoding", carbon.EncodingUTF8, "Feed text encoding (utf-8 or big5)")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run fetches the feed and rewrites the output file. A failed fetch or
// validation leaves the output file untouched.
func run(opts options, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Fetching grid electricity intensity...")
	fmt.Fprintf(stdout, "Source: %s\n", opts.url)

	latest, err := fetchLatest(opts.url, opts.encoding)
	if err != nil {
		return fmt.Errorf("fetching grid intensity, %s left unchanged: %w", opts.output, err)
	}

	if opts.validate {
		if err := validateIntensity(latest.Value); err != nil {
			return fmt.Errorf("validation failed, %s left unchanged: %w", opts.output, err)
		}
		fmt.Fprintln(stdout, "Validation passed")
	}

	content := generateGridIntensityFile(latest)

	if opts.dryRun {
		fmt.Fprintln(stdout, "\n--- Dry run output ---")
		fmt.Fprintln(stdout, content)
		return nil
	}

	if err := os.WriteFile(opts.output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}

	fmt.Fprintf(stdout, "Updated %s: %s kgCO2e/kWh (vintage %d)\n", opts.output, formatValue(latest.Value), vintage(latest.Period))
	fmt.Fprintln(stdout, "Run 'go test ./internal/carbon/...' to verify the changes")
	return nil
}

// fetchLatest fetches the newest row of the feed.
func fetchLatest(url, encoding string) (carbon.GridIntensity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	feed := carbon.NewHTTPGridFeed(url, zerolog.Nop())
	feed.Encoding = encoding
	feed.Client = &http.Client{Timeout: fetchTimeout}

	return feed.FetchLatest(ctx)
}

// validateIntensity checks the value is a plausible grid intensity.
func validateIntensity(v float64) error {
	if v <= 0 || v > carbon.MaxGridIntensity {
		return fmt.Errorf("grid intensity %.4f is outside valid range (0, %.1f]", v, carbon.MaxGridIntensity)
	}
	return nil
}

// vintage converts a feed period to a Gregorian year.
func vintage(period int) int {
	if period < minguoOffset {
		return period + minguoOffset
	}
	return period
}

func formatValue(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	for len(s) > 3 && s[len(s)-1] == '0' && s[len(s)-2] != '.' {
		s = s[:len(s)-1]
	}
	return s
}

// generateGridIntensityFile generates the grid_intensity.go file content.
func generateGridIntensityFile(latest carbon.GridIntensity) string {
	return fmt.Sprintf(fileTemplate, vintage(latest.Period), formatValue(latest.Value))
}
