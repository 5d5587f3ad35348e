package carbon

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a coefficient table is served before a refresh.
const DefaultTTL = time.Hour

const refreshKey = "coefficients"

// CoefficientSource supplies the coefficient table used by the estimators.
type CoefficientSource interface {
	Current(ctx context.Context) *Table
}

// Current implements CoefficientSource, so a fixed Table can stand in for a Store.
func (t *Table) Current(context.Context) *Table {
	return t
}

// RefreshObserver is notified after every refresh attempt.
type RefreshObserver interface {
	ObserveRefresh(fetched bool, electricity float64, elapsed time.Duration)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL sets how long a refreshed table is served.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each feed fetch.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "coefficient_store").Logger()
	}
}

// WithRefreshObserver registers an observer for refresh outcomes.
func WithRefreshObserver(o RefreshObserver) StoreOption {
	return func(s *Store) {
		s.observer = o
	}
}

type snapshot struct {
	table       *Table
	refreshedAt time.Time
}

// Store serves the current coefficient table. The table starts from
// FallbackTable and has its electricity rate overlaid from the feed at most
// once per TTL window. A failed fetch keeps the fallback rate and still
// starts a new window.
//
// Store is safe for concurrent use. Refreshes are coalesced, and while one
// is in flight callers that already have a table keep getting it; only the
// very first call waits, bounded by the fetch timeout.
type Store struct {
	fetcher      GridIntensityFetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger
	observer     RefreshObserver

	current    atomic.Pointer[snapshot]
	refreshing atomic.Bool
	group      singleflight.Group
}

// NewStore creates a Store. A nil fetcher serves the fallback table only.
func NewStore(fetcher GridIntensityFetcher, opts ...StoreOption) *Store {
	s := &Store{
		fetcher:      fetcher,
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the current coefficient table, refreshing it first when
// the store is empty or the TTL has elapsed. It never fails.
func (s *Store) Current(ctx context.Context) *Table {
	snap := s.current.Load()
	if snap == nil {
		return s.doRefresh(ctx, false).table
	}
	if !s.expired(snap) {
		return snap.table
	}
	// The stale table is served to everyone but the caller that claims the refresh.
	if !s.refreshing.CompareAndSwap(false, true) {
		return snap.table
	}
	defer s.refreshing.Store(false)
	return s.doRefresh(ctx, false).table
}

// Refresh forces a refresh regardless of the TTL and returns the new table.
func (s *Store) Refresh(ctx context.Context) *Table {
	if s.refreshing.CompareAndSwap(false, true) {
		defer s.refreshing.Store(false)
	}
	return s.doRefresh(ctx, true).table
}

// LastRefresh returns when the served table was built, or the zero time if
// the store has not refreshed yet.
func (s *Store) LastRefresh() time.Time {
	if snap := s.current.Load(); snap != nil {
		return snap.refreshedAt
	}
	return time.Time{}
}

func (s *Store) expired(snap *snapshot) bool {
	return s.now().Sub(snap.refreshedAt) > s.ttl
}

func (s *Store) doRefresh(ctx context.Context, force bool) *snapshot {
	v, _, _ := s.group.Do(refreshKey, func() (any, error) {
		// Another caller may have refreshed between our Load and Do.
		if cur := s.current.Load(); !force && cur != nil && !s.expired(cur) {
			return cur, nil
		}
		return s.refresh(ctx), nil
	})
	return v.(*snapshot)
}

func (s *Store) refresh(ctx context.Context) *snapshot {
	started := s.now()
	begin := time.Now()
	table := FallbackTable()
	fetched := false

	if s.fetcher != nil {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		value, err := s.fetcher.FetchGridIntensity(fetchCtx)
		cancel()

		switch {
		case err != nil:
			s.logger.Warn().Err(err).
				Float64("electricity", table.Energy.Electricity).
				Msg("grid intensity refresh failed, keeping fallback")
		case !validGridIntensity(value):
			s.logger.Warn().Float64("value", value).
				Float64("electricity", table.Energy.Electricity).
				Msg("grid intensity out of range, keeping fallback")
		default:
			table.Energy.Electricity = value
			fetched = true
			s.logger.Info().Float64("electricity", value).Msg("grid intensity refreshed")
		}
	}

	snap := &snapshot{table: table, refreshedAt: started}
	s.current.Store(snap)

	if s.observer != nil {
		s.observer.ObserveRefresh(fetched, table.Energy.Electricity, time.Since(begin))
	}
	return snap
}

func validGridIntensity(v float64) bool {
	return v > 0 && v <= MaxGridIntensity && !math.IsNaN(v)
}
