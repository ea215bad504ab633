package premium

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloor(t *testing.T) {
	tests := []struct {
		name  string
		floor int
		ptype string
		want  float64
	}{
		{"ground", 0, "Unit", 0},
		{"basement", -2, "Unit", 0},
		{"villa", 10, "Villa", 0},
		{"townhouse", 10, "townhouse", 0},
		{"land", 3, "Land", 0},
		{"first", 1, "Unit", 1},
		{"fifth", 5, "Unit", 5},
		{"tenth", 10, "Unit", 7.5},
		{"fifteenth", 15, "Unit", 10},
		{"twentieth", 20, "Unit", 11.5},
		{"thirtieth", 30, "Unit", 14.5},
		{"fortieth", 40, "Unit", 16.5},
		{"capped", 90, "Unit", 25},
		{"beyond cap", 400, "Unit", 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Floor(tt.floor, tt.ptype), 1e-9)
		})
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		ptype   string
		offPlan bool
		want    float64
	}{
		{"new unit", 0, "Unit", false, 5},
		{"new villa", 0, "Villa", false, 5},
		{"off-plan ignores age", 12, "Unit", true, 5},
		{"three years", 3, "Unit", false, 0},
		{"five years", 5, "Unit", false, -2},
		{"ten years", 10, "Unit", false, -7},
		{"fifteen years", 15, "Unit", false, -14.5},
		{"twenty years", 20, "Unit", false, -22},
		{"twenty five", 25, "Unit", false, -32},
		{"thirty", 30, "Unit", false, -42},
		{"thirty two", 32, "Unit", false, -47},
		{"floor at minus fifty", 60, "Unit", false, -50},
		{"villa dampened", 10, "Villa", false, -4.9},
		{"villa thirty", 30, "Luxury Villa", false, -29.4},
		{"capped age", 1000, "Unit", false, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Age(tt.age, tt.ptype, tt.offPlan), 1e-9)
		})
	}
}

func TestAttributeBounds(t *testing.T) {
	for f := -5; f <= 200; f++ {
		v := Floor(f, "Unit")
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 25.0)
	}
	for a := 0; a <= 200; a++ {
		for _, pt := range []string{"Unit", "Villa"} {
			v := Age(a, pt, false)
			assert.GreaterOrEqual(t, v, -50.0)
			assert.LessOrEqual(t, v, 5.0)
		}
	}
}
