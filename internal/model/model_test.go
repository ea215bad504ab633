package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_ParseSize(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		size float64
	}{
		{"120", true, 120},
		{" 85.5 ", true, 85.5},
		{"", false, 0},
		{"n/a", false, 0},
		{"-4", false, 0},
		{"0", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tx := Transaction{RawSize: tt.raw}
			assert.Equal(t, tt.ok, tx.ParseSize())
			assert.InDelta(t, tt.size, tx.Size, 0.0001)
		})
	}
}

func TestTransaction_PricePerArea(t *testing.T) {
	assert.InDelta(t, 10000, Transaction{Price: 1_000_000, Size: 100}.PricePerArea(), 0.001)
	assert.Zero(t, Transaction{Price: 1_000_000}.PricePerArea())
	assert.InDelta(t, 800, LeaseRecord{AnnualRent: 80_000, Size: 100}.RentPerArea(), 0.001)
	assert.Zero(t, LeaseRecord{AnnualRent: 80_000}.RentPerArea())
}

func TestSegment_Bounds(t *testing.T) {
	assert.Equal(t, Bounds{Min: 100_000, Max: 50_000_000, ExtremeCeiling: 100_000_000}, Sale.Bounds())
	assert.Equal(t, Bounds{Min: 10_000, Max: 2_000_000, ExtremeCeiling: 5_000_000}, Lease.Bounds())
	assert.Equal(t, "transactions", Sale.Table())
	assert.Equal(t, "leases", Lease.Table())
	assert.Equal(t, "annual_amount", Lease.PriceColumn())
	assert.Equal(t, "instance_date", Sale.DateColumn())
	assert.Equal(t, "lease", Lease.String())
}

func TestAreaCoordinate_DataPoints(t *testing.T) {
	one := 1.0
	assert.Equal(t, 0, AreaCoordinate{}.DataPoints())
	assert.Equal(t, 3, AreaCoordinate{MetroKM: &one, BeachKM: &one, NeighborhoodScore: &one}.DataPoints())
	assert.False(t, AreaCoordinate{Latitude: &one}.HasLocation())
	assert.True(t, AreaCoordinate{Latitude: &one, Longitude: &one}.HasLocation())
}

func TestNewCacheKey(t *testing.T) {
	k := NewCacheKey("  Dubai MARINA ", "Unit", "")
	assert.Equal(t, CacheKey{Area: "dubai marina", PropertyType: "Unit", Bedrooms: ""}, k)
}

func TestPropertyHelpers(t *testing.T) {
	assert.True(t, IsGroundLevel("Villa"))
	assert.True(t, IsGroundLevel(" plot "))
	assert.False(t, IsGroundLevel("Unit"))
	assert.False(t, IsGroundLevel("Villa Apartment"))

	assert.True(t, IsVilla("Twin Villa"))
	assert.False(t, IsVilla("Unit"))

	assert.True(t, IsOffPlan("Off-Plan"))
	assert.True(t, IsOffPlan("off plan"))
	assert.False(t, IsOffPlan("Ready"))

	assert.True(t, MatchesArea("Dubai Marina", "marina"))
	assert.False(t, MatchesArea("Business Bay", "marina"))
	assert.False(t, MatchesArea("Business Bay", " "))
	assert.True(t, MatchesType("unit", "Unit"))
}
