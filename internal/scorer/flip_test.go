package scorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/store"
)

func batch(n int, ppa float64, date time.Time) []model.Transaction {
	out := make([]model.Transaction, n)
	for i := range out {
		out[i] = sale(ppa*100, 100, date)
	}
	return out
}

// risingMarket spans five quarters, the oldest of which falls outside the
// four-quarter window.
func risingMarket() []model.Transaction {
	var rows []model.Transaction
	rows = append(rows, batch(10, 11_000, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))...)
	rows = append(rows, batch(10, 10_800, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))...)
	rows = append(rows, batch(10, 10_500, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC))...)
	rows = append(rows, batch(10, 10_000, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC))...)
	rows = append(rows, batch(5, 20_000, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))...)
	return rows
}

var marinaFlip = model.FlipRequest{PropertyType: "Unit", Area: "Dubai Marina", Size: 100}

func TestFlip_StrongMarket(t *testing.T) {
	m := &fakeMarket{
		sales: func(store.MarketFilter) ([]model.Transaction, error) { return risingMarket(), nil },
		leases: func(store.MarketFilter) ([]model.LeaseRecord, error) {
			return leases(90_000, 90_000, 90_000), nil
		},
	}

	got, err := newTestScorer(m).Flip(context.Background(), marinaFlip)
	require.NoError(t, err)

	b := got.Breakdown
	assert.Equal(t, 100, b.Appreciation.Score)
	assert.Equal(t, 70, b.Liquidity.Score)
	assert.Equal(t, 100, b.Yield.Score)
	assert.Equal(t, 100, b.Segment.Score)
	assert.Equal(t, "Market segment: Mid-Tier", b.Segment.Details)
	assert.Equal(t, "45 transactions in last 12 months", b.Liquidity.Details)
	assert.InDelta(t, 35.0, b.Appreciation.Contribution, 0.001)
	assert.InDelta(t, 17.5, b.Liquidity.Contribution, 0.001)
	assert.Equal(t, 35, b.Appreciation.Weight)
	assert.Equal(t, 15, b.Segment.Weight)

	assert.Equal(t, 93, got.Score)
	assert.Equal(t, "Excellent Flip Potential", got.Rating)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
	assert.Equal(t, 85, got.DataQuality.TransactionsAnalyzed)
	assert.Equal(t, 3, got.DataQuality.RentalComparables)
	assert.Equal(t, "2025-Q3 to 2026-Q2", got.DataQuality.DateRange)
}

func TestFlip_SalesErrorDegrades(t *testing.T) {
	m := &fakeMarket{
		sales: func(store.MarketFilter) ([]model.Transaction, error) { return nil, errors.New("timeout") },
		leases: func(store.MarketFilter) ([]model.LeaseRecord, error) {
			return leases(90_000, 90_000, 90_000), nil
		},
	}

	got, err := newTestScorer(m).Flip(context.Background(), marinaFlip)
	require.NoError(t, err)

	b := got.Breakdown
	assert.Equal(t, 50, b.Appreciation.Score)
	assert.Equal(t, 50, b.Liquidity.Score)
	assert.Equal(t, 50, b.Yield.Score)
	assert.Equal(t, 70, b.Segment.Score)
	assert.Contains(t, b.Appreciation.Error, "timeout")
	assert.Contains(t, b.Yield.Error, "scorer: list sales")

	assert.Equal(t, 53, got.Score)
	assert.Equal(t, "Moderate Flip Potential", got.Rating)
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, "N/A to N/A", got.DataQuality.DateRange)
}

func TestFlip_LeaseErrorDegradesYieldOnly(t *testing.T) {
	m := &fakeMarket{
		sales: func(store.MarketFilter) ([]model.Transaction, error) { return risingMarket(), nil },
		leases: func(store.MarketFilter) ([]model.LeaseRecord, error) {
			return nil, errors.New("leases offline")
		},
	}

	got, err := newTestScorer(m).Flip(context.Background(), marinaFlip)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Breakdown.Yield.Score)
	assert.Contains(t, got.Breakdown.Yield.Error, "leases offline")
	assert.Empty(t, got.Breakdown.Appreciation.Error)
	assert.Equal(t, 100, got.Breakdown.Appreciation.Score)
}

func TestFlip_DefaultYieldWithoutRents(t *testing.T) {
	m := &fakeMarket{
		sales: func(store.MarketFilter) ([]model.Transaction, error) { return risingMarket(), nil },
	}

	got, err := newTestScorer(m).Flip(context.Background(), marinaFlip)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Breakdown.Yield.Score)
	assert.Equal(t, "Rental yield: 5.0%", got.Breakdown.Yield.Details)
	assert.Zero(t, got.DataQuality.RentalComparables)

	// size band first, then the area-wide fallback
	require.Len(t, m.leaseFilters, 2)
	assert.Zero(t, m.leaseFilters[1].MinSize)
	assert.Equal(t, "Dubai Marina", m.leaseFilters[1].Area)
}

func TestFlip_NoMarketData(t *testing.T) {
	m := &fakeMarket{}
	got, err := newTestScorer(m).Flip(context.Background(), marinaFlip)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Score, 1)
	assert.LessOrEqual(t, got.Score, 100)
	assert.Equal(t, 20, got.Breakdown.Liquidity.Score)
	assert.Equal(t, 50, got.Breakdown.Appreciation.Score)
	assert.Equal(t, 70, got.Breakdown.Segment.Score)
	assert.Equal(t, 48, got.Score)
	assert.Equal(t, "Moderate Flip Potential", got.Rating)
}

func TestAppreciation(t *testing.T) {
	q := func(y int, m time.Month) time.Time { return time.Date(y, m, 5, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name      string
		sales     []model.Transaction
		wantScore int
		wantTx    int
	}{
		{"single quarter", batch(8, 10_000, q(2026, 4)), 50, 0},
		{"strong growth", append(batch(2, 10_600, q(2026, 4)), batch(2, 10_000, q(2026, 1))...), 100, 4},
		{"moderate growth", append(batch(2, 10_300, q(2026, 4)), batch(2, 10_000, q(2026, 1))...), 70, 4},
		{"flat", append(batch(1, 10_000, q(2026, 4)), batch(3, 10_000, q(2025, 10))...), 40, 4},
		{"decline", append(batch(2, 9_000, q(2026, 4)), batch(2, 10_000, q(2026, 1))...), 20, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Appreciation(tt.sales)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantTx, got.Transactions)
		})
	}
}

func TestFlipSegment(t *testing.T) {
	tests := []struct {
		ppa   float64
		score int
		label string
	}{
		{0, 70, "Mid-Tier"},
		{5_000, 70, "Budget"},
		{8_000, 100, "Mid-Tier"},
		{12_000, 85, "Premium"},
		{20_000, 60, "Luxury"},
		{40_000, 40, "Ultra-Luxury"},
	}
	for _, tt := range tests {
		score, label := flipSegment(tt.ppa)
		assert.Equal(t, tt.score, score, "ppa %v", tt.ppa)
		assert.Equal(t, tt.label, label, "ppa %v", tt.ppa)
	}
}

func TestFlipBands(t *testing.T) {
	assert.Equal(t, 100, liquidityScore(50))
	assert.Equal(t, 70, liquidityScore(20))
	assert.Equal(t, 40, liquidityScore(5))
	assert.Equal(t, 20, liquidityScore(4))

	assert.Equal(t, 100, flipYieldScore(8))
	assert.Equal(t, 80, flipYieldScore(6))
	assert.Equal(t, 60, flipYieldScore(4))
	assert.Equal(t, 30, flipYieldScore(3.9))

	assert.Equal(t, ConfidenceHigh, flipConfidence(30))
	assert.Equal(t, ConfidenceMedium, flipConfidence(10))
	assert.Equal(t, ConfidenceLow, flipConfidence(9))
}
