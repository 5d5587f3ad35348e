package carbon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

const (
	// DefaultFetchTimeout bounds a single grid-intensity refresh, retries included.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultFeedRetries is how many times a transient feed failure is retried.
	DefaultFeedRetries = 2

	// MaxGridIntensity is the largest plausible grid intensity in kgCO2e per kWh.
	// Feed values above it are rejected.
	MaxGridIntensity = 2.0

	// maxFeedBytes caps how much of a feed response is read.
	maxFeedBytes = 1 << 20
)

// Feed text encodings accepted by HTTPGridFeed.
const (
	EncodingUTF8 = "utf-8"
	EncodingBig5 = "big5"
)

// GridIntensityFetcher fetches the latest grid electricity intensity in kgCO2e per kWh.
type GridIntensityFetcher interface {
	FetchGridIntensity(ctx context.Context) (float64, error)
}

// GridIntensity is one row of the grid-intensity feed.
type GridIntensity struct {
	// Period is the integer period identifier of the row (a year, possibly
	// in a local calendar).
	Period int

	// Value is the grid intensity in kgCO2e per kWh.
	Value float64
}

// HTTPGridFeed fetches a CSV time series of grid intensity over HTTP.
// The first row is a header; each following row starts with
// (period, coefficient, ...). The row with the largest period wins.
type HTTPGridFeed struct {
	// URL is the feed location.
	URL string

	// Encoding is the text encoding of the feed, EncodingUTF8 (default) or EncodingBig5.
	Encoding string

	// Client performs the request. Defaults to a client with DefaultFetchTimeout.
	Client *http.Client

	// Retries is the number of retries after a transient failure.
	Retries uint64

	logger zerolog.Logger
}

// NewHTTPGridFeed returns a feed for url with default client and retry settings.
func NewHTTPGridFeed(url string, logger zerolog.Logger) *HTTPGridFeed {
	return &HTTPGridFeed{
		URL:      url,
		Encoding: EncodingUTF8,
		Client:   &http.Client{Timeout: DefaultFetchTimeout},
		Retries:  DefaultFeedRetries,
		logger:   logger.With().Str("component", "grid_feed").Logger(),
	}
}

// FetchGridIntensity implements GridIntensityFetcher.
func (f *HTTPGridFeed) FetchGridIntensity(ctx context.Context) (float64, error) {
	latest, err := f.FetchLatest(ctx)
	if err != nil {
		return 0, err
	}
	return latest.Value, nil
}

// FetchLatest returns the newest row of the feed. Transport errors and
// 5xx responses are retried with exponential backoff until ctx is done;
// other failures are returned immediately.
func (f *HTTPGridFeed) FetchLatest(ctx context.Context) (GridIntensity, error) {
	if f.URL == "" {
		return GridIntensity{}, errors.New("grid feed URL not configured")
	}

	var latest GridIntensity
	op := func() error {
		row, err := f.fetchOnce(ctx)
		if err != nil {
			return err
		}
		latest = row
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	err := backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, f.Retries), ctx),
		func(err error, d time.Duration) {
			f.logger.Debug().Err(err).Dur("retry_in", d).Str("url", f.URL).Msg("grid feed fetch failed, retrying")
		},
	)
	if err != nil {
		return GridIntensity{}, err
	}

	f.logger.Debug().
		Int("period", latest.Period).
		Float64("electricity", latest.Value).
		Msg("fetched grid intensity")
	return latest, nil
}

func (f *HTTPGridFeed) fetchOnce(ctx context.Context) (GridIntensity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return GridIntensity{}, backoff.Permanent(fmt.Errorf("building feed request: %w", err))
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return GridIntensity{}, backoff.Permanent(err)
		}
		return GridIntensity{}, fmt.Errorf("fetching grid feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected feed status: %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return GridIntensity{}, statusErr
		}
		return GridIntensity{}, backoff.Permanent(statusErr)
	}

	var body io.Reader = io.LimitReader(resp.Body, maxFeedBytes)
	if strings.EqualFold(f.Encoding, EncodingBig5) {
		body = transform.NewReader(body, traditionalchinese.Big5.NewDecoder())
	}

	row, err := ParseGridIntensityCSV(body)
	if err != nil {
		return GridIntensity{}, backoff.Permanent(err)
	}
	return row, nil
}

// ParseGridIntensityCSV reads a header row followed by (period, coefficient, ...)
// rows and returns the row with the largest integer period. Rows that are too
// short or do not parse are skipped. A leading UTF-8 byte order mark is ignored.
func ParseGridIntensityCSV(r io.Reader) (GridIntensity, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return GridIntensity{}, ErrNoGridIntensity
		}
		return GridIntensity{}, fmt.Errorf("reading feed header: %w", err)
	}

	var (
		latest GridIntensity
		found  bool
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return GridIntensity{}, fmt.Errorf("reading feed: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		period, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		if !found || period > latest.Period {
			latest = GridIntensity{Period: period, Value: value}
			found = true
		}
	}

	if !found {
		return GridIntensity{}, ErrNoGridIntensity
	}
	return latest, nil
}
