package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/comparable"
	"github.com/sells-group/avm-cli/internal/config"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/monitoring"
	"github.com/sells-group/avm-cli/internal/scorer"
	"github.com/sells-group/avm-cli/internal/store"
	"github.com/sells-group/avm-cli/internal/valuation"
)

// memStore is an in-memory store.Store for command tests.
type memStore struct {
	mu       sync.Mutex
	comps    []model.Transaction
	compsErr error
	stats    model.CacheStats
	pruned   time.Duration
	pingErr  error
	closed   bool
}

var _ store.Store = (*memStore)(nil)

func (m *memStore) SearchComparables(context.Context, store.ComparableFilter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Transaction(nil), m.comps...), m.compsErr
}

func (m *memStore) ListSales(context.Context, store.MarketFilter) ([]model.Transaction, error) {
	return nil, nil
}

func (m *memStore) ListLeases(context.Context, store.MarketFilter) ([]model.LeaseRecord, error) {
	return nil, nil
}

func (m *memStore) GetAreaCoordinate(context.Context, string) (*model.AreaCoordinate, error) {
	return nil, nil
}

func (m *memStore) ListAmenities(context.Context) ([]model.Amenity, error) {
	return nil, nil
}

func (m *memStore) GetProjectPremium(context.Context, string) (*model.ProjectPremium, error) {
	return nil, nil
}

func (m *memStore) ListProjectsByTier(context.Context, string, string, int) ([]model.ProjectPremium, error) {
	return nil, nil
}

func (m *memStore) GetLocationPremium(context.Context, model.CacheKey, time.Duration) (*model.LocationCacheEntry, error) {
	return nil, nil
}

func (m *memStore) RecordCacheHit(context.Context, model.CacheKey) error { return nil }

func (m *memStore) UpsertLocationPremium(context.Context, model.CacheKey, model.LocationPremium) error {
	return nil
}

func (m *memStore) CacheStats(context.Context, time.Duration) (*model.CacheStats, error) {
	s := m.stats
	return &s, nil
}

func (m *memStore) PruneLocationCache(_ context.Context, maxAge time.Duration) (int, error) {
	m.pruned = maxAge
	return 3, nil
}

func (m *memStore) Ping(context.Context) error    { return m.pingErr }
func (m *memStore) Migrate(context.Context) error { return nil }

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Store:     config.StoreConfig{Driver: "sqlite"},
		Valuation: config.ValuationConfig{Config: comparable.DefaultConfig(), QueryTimeoutMs: 5000, LookupTimeoutMs: 1000},
		Market:    scorer.DefaultConfig(),
		Cache:     config.CacheConfig{Enabled: true, TTLHours: 24},
		Retry:     config.RetryConfig{MaxAttempts: 1},
	}
}

func newTestService(t *testing.T, st store.Store) (*valuation.Service, *monitoring.Metrics) {
	t.Helper()
	m, err := monitoring.NewMetrics(nil)
	require.NoError(t, err)
	svc, _, err := buildService(context.Background(), testConfig(), st, m)
	require.NoError(t, err)
	return svc, m
}

// marinaComps are six units of 100 sqm sold between 1.00M and 1.10M.
func marinaComps() []model.Transaction {
	prices := []float64{1_000_000, 1_020_000, 1_040_000, 1_060_000, 1_080_000, 1_100_000}
	out := make([]model.Transaction, len(prices))
	for i, p := range prices {
		out[i] = model.Transaction{
			AreaName:     "Dubai Marina",
			PropertyType: "Unit",
			Rooms:        "2 B/R",
			Price:        p,
			RawSize:      "100",
			Date:         time.Now().AddDate(0, -3, 0),
		}
	}
	return out
}
