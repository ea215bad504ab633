package premium

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Compounds(t *testing.T) {
	res := Apply(1_000_000, []Adjustment{
		{Name: NameLocation, Percent: 10},
		{Name: NameProject, Percent: 0},
		{Name: NameFloor, Percent: 11.5},
		{Name: NameView, Percent: 15},
		{Name: NameAge, Percent: 5},
	})

	want := 1_000_000 * 1.10 * 1.115 * 1.15 * 1.05
	assert.InDelta(t, want, res.Final, 1e-6)
	assert.InDelta(t, 41.5, res.Combined, 1e-9)
	assert.InDelta(t, 41.5, res.RawSum, 1e-9)
	require.Len(t, res.Adjustments, 5)
	assert.Equal(t, NameLocation, res.Adjustments[0].Name)
	assert.InDelta(t, 100_000, res.Adjustments[0].Amount, 1e-9)
	assert.Zero(t, res.Adjustments[1].Amount)
	assert.InDelta(t, 126_500, res.Adjustments[2].Amount, 1e-9)
	assert.Greater(t, (res.Final-res.Base)/res.Base*100, res.Combined)
}

func TestApply_ClampsCombinedOnly(t *testing.T) {
	res := Apply(100, []Adjustment{
		{Name: NameLocation, Percent: 70},
		{Name: NameProject, Percent: 25},
	})
	assert.InDelta(t, 70, res.Combined, 1e-9)
	assert.InDelta(t, 95, res.RawSum, 1e-9)
	assert.InDelta(t, 212.5, res.Final, 1e-9)

	res = Apply(100, []Adjustment{
		{Name: NameAge, Percent: -50},
	})
	assert.InDelta(t, -20, res.Combined, 1e-9)
	assert.InDelta(t, 50, res.Final, 1e-9)
}

func TestApply_Empty(t *testing.T) {
	res := Apply(500, nil)
	assert.Equal(t, 500.0, res.Final)
	assert.Zero(t, res.Combined)
	assert.Empty(t, res.Adjustments)
}

func TestApply_CombinedAlwaysInBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for range 500 {
		comps := make([]Adjustment, 5)
		for i := range comps {
			comps[i] = Adjustment{Percent: r.Float64()*120 - 60}
		}
		res := Apply(1_000, comps)
		assert.GreaterOrEqual(t, res.Combined, MinCombined)
		assert.LessOrEqual(t, res.Combined, MaxCombined)
		assert.False(t, math.IsNaN(res.Final))
	}
}
