package scorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/store"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeMarket struct {
	mu           sync.Mutex
	sales        func(store.MarketFilter) ([]model.Transaction, error)
	leases       func(store.MarketFilter) ([]model.LeaseRecord, error)
	saleFilters  []store.MarketFilter
	leaseFilters []store.MarketFilter
}

func (f *fakeMarket) ListSales(_ context.Context, filter store.MarketFilter) ([]model.Transaction, error) {
	f.mu.Lock()
	f.saleFilters = append(f.saleFilters, filter)
	f.mu.Unlock()
	if f.sales == nil {
		return nil, nil
	}
	return f.sales(filter)
}

func (f *fakeMarket) ListLeases(_ context.Context, filter store.MarketFilter) ([]model.LeaseRecord, error) {
	f.mu.Lock()
	f.leaseFilters = append(f.leaseFilters, filter)
	f.mu.Unlock()
	if f.leases == nil {
		return nil, nil
	}
	return f.leases(filter)
}

func newTestScorer(m Market) *Scorer {
	return New(m, Config{}, WithClock(func() time.Time { return testNow }))
}

func leases(rents ...float64) []model.LeaseRecord {
	out := make([]model.LeaseRecord, len(rents))
	for i, r := range rents {
		out[i] = model.LeaseRecord{AreaName: "Dubai Marina", PropertyType: "Unit", AnnualRent: r, Size: 100, Registered: testNow.AddDate(0, -1, 0)}
	}
	return out
}

func sale(price, size float64, date time.Time) model.Transaction {
	return model.Transaction{AreaName: "Dubai Marina", PropertyType: "Unit", Price: price, Size: size, Date: date}
}

func TestRentalSummary_SizeMatched(t *testing.T) {
	m := &fakeMarket{leases: func(store.MarketFilter) ([]model.LeaseRecord, error) {
		return leases(70_000, 80_000, 90_000, 100_000), nil
	}}

	got, err := newTestScorer(m).RentalSummary(context.Background(), "Dubai Marina", "Unit", 100)
	require.NoError(t, err)
	assert.InDelta(t, 85_000, got.AnnualRent, 0.01)
	assert.InDelta(t, 77_500, got.RentLow, 0.01)
	assert.InDelta(t, 92_500, got.RentHigh, 0.01)
	assert.Equal(t, 4, got.Comparables)
	assert.False(t, got.IsCityAverage)

	require.Len(t, m.leaseFilters, 1)
	f := m.leaseFilters[0]
	assert.Equal(t, "Dubai Marina", f.Area)
	assert.InDelta(t, 70, f.MinSize, 0.001)
	assert.InDelta(t, 130, f.MaxSize, 0.001)
	assert.Equal(t, testNow.AddDate(0, -12, 0), f.Since)
}

func TestRentalSummary_CityFallback(t *testing.T) {
	m := &fakeMarket{leases: func(f store.MarketFilter) ([]model.LeaseRecord, error) {
		if f.Area != "" {
			return leases(80_000, 90_000), nil
		}
		return leases(60_000, 60_000, 60_000, 60_000, 60_000, 120_000, 120_000, 120_000, 120_000, 120_000), nil
	}}

	got, err := newTestScorer(m).RentalSummary(context.Background(), "Dubai Marina", "Unit", 100)
	require.NoError(t, err)
	assert.True(t, got.IsCityAverage)
	assert.InDelta(t, 90_000, got.AnnualRent, 0.01)
	assert.Equal(t, 10, got.Comparables)
	assert.Equal(t, "city-wide (Unit)", got.Scope)

	require.Len(t, m.leaseFilters, 2)
	assert.Empty(t, m.leaseFilters[1].Area)
	assert.InDelta(t, 70, m.leaseFilters[1].MinSize, 0.001)
}

func TestRentalSummary_NoData(t *testing.T) {
	m := &fakeMarket{leases: func(f store.MarketFilter) ([]model.LeaseRecord, error) {
		if f.Area != "" {
			return nil, nil
		}
		return leases(80_000, 80_000, 80_000), nil
	}}

	_, err := newTestScorer(m).RentalSummary(context.Background(), "Dubai Marina", "Unit", 100)
	assert.ErrorIs(t, err, ErrNoLeaseData)
}

func TestRentalSummary_OutliersIgnored(t *testing.T) {
	m := &fakeMarket{leases: func(f store.MarketFilter) ([]model.LeaseRecord, error) {
		return leases(5_000, 80_000, 80_000, 80_000, 9_000_000), nil
	}}

	got, err := newTestScorer(m).RentalSummary(context.Background(), "Dubai Marina", "Unit", 100)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Comparables)
	assert.InDelta(t, 80_000, got.AnnualRent, 0.01)
}

func TestRentalSummary_StoreError(t *testing.T) {
	m := &fakeMarket{leases: func(store.MarketFilter) ([]model.LeaseRecord, error) {
		return nil, errors.New("boom")
	}}

	_, err := newTestScorer(m).RentalSummary(context.Background(), "Dubai Marina", "Unit", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer: list leases")
}

func TestRentalSummary_GrossYield(t *testing.T) {
	r := RentalSummary{AnnualRent: 80_000}
	assert.InDelta(t, 6.67, r.GrossYield(1_200_000), 0.001)
	assert.Zero(t, r.GrossYield(0))
}
