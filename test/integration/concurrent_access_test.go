// Package integration provides integration tests for the footprint estimator.
//
// This file contains concurrent access tests verifying thread safety of the
// coefficient store and both estimators under high concurrency (100+ goroutines).
//
// Run with: go test ./test/integration/... -v -run Concurrent
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

const (
	// numGoroutines is the number of concurrent goroutines for stress testing.
	numGoroutines = 150

	// numIterations is the number of iterations per goroutine.
	numIterations = 10
)

// slowFeed serves a grid-intensity CSV after a delay and counts requests.
func slowFeed(t *testing.T, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(delay)
		_, _ = w.Write([]byte("year,factor\n111,0.495\n112,0.474\n"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// TestConcurrentAccess_Store verifies that concurrent cold-start reads of the
// coefficient store trigger exactly one feed fetch and all see the same table.
func TestConcurrentAccess_Store(t *testing.T) {
	feed, hits := slowFeed(t, 50*time.Millisecond)
	store := carbon.NewStore(carbon.NewHTTPGridFeed(feed.URL, zerolog.Nop()))

	var wg sync.WaitGroup
	tables := make(chan *carbon.Table, numGoroutines*numIterations)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				tables <- store.Current(context.Background())
			}
		}()
	}
	wg.Wait()
	close(tables)

	var first *carbon.Table
	for table := range tables {
		require.NotNil(t, table)
		if first == nil {
			first = table
		}
		assert.Same(t, first, table)
	}
	assert.Equal(t, 0.474, first.Energy.Electricity)
	assert.Equal(t, int32(1), hits.Load(), "one fetch per TTL window")
}

// TestConcurrentAccess_Estimators verifies that both estimators return
// identical results when shared across goroutines.
func TestConcurrentAccess_Estimators(t *testing.T) {
	feed, _ := slowFeed(t, 0)
	store := carbon.NewStore(carbon.NewHTTPGridFeed(feed.URL, zerolog.Nop()))
	quick := carbon.NewQuickEstimator(store, nil)
	detailed := carbon.NewDetailedEstimator(store, carbon.NewPoolSuggester(nil))

	quickInput := carbon.QuickInput{Commute: "scooter_gas", Diet: "meat_heavy", Shopping: "high"}
	detailedInput := carbon.DetailedInput{
		Energy:      carbon.EnergyInput{Electricity: carbon.NewQuantity(300), Water: carbon.NewQuantity(0), Gas: carbon.NewQuantity(0)},
		Transport:   carbon.TransportInput{Type: "public", Km: carbon.NewQuantity(100)},
		Diet:        carbon.DietInput{Meat: carbon.NewQuantity(3), Veg: carbon.NewQuantity(10)},
		Consumption: carbon.ConsumptionInput{Clothes: carbon.NewQuantity(1000), Electronics: carbon.NewQuantity(0)},
		Waste:       carbon.WasteInput{Bags: carbon.NewQuantity(2), Recycle: carbon.NewQuantity(4)},
	}

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*numIterations)
	quickTotals := make(chan float64, numGoroutines*numIterations)
	detailedTotals := make(chan float64, numGoroutines*numIterations)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				quickTotals <- quick.Estimate(context.Background(), quickInput).Total

				result, err := detailed.Estimate(context.Background(), detailedInput)
				if err != nil {
					errs <- err
					return
				}
				detailedTotals <- result.Total
			}
		}()
	}
	wg.Wait()
	close(errs)
	close(quickTotals)
	close(detailedTotals)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	for total := range quickTotals {
		assert.Equal(t, 3034.5, total)
	}
	// 300×12×0.474 + 100×12×0.035 + (3×1.5 + 10×0.3)×52 + 1000×12/1000×0.5 + (2×0.8 − 4×0.5)×52
	for total := range detailedTotals {
		assert.InDelta(t, 2123.6, total, 1e-9)
	}
}
