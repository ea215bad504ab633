package premium

import (
	"math"

	"github.com/sells-group/avm-cli/internal/model"
)

const (
	maxFloor = 150
	maxAge   = 100

	newPropertyPremium = 5.0
	villaDampening     = 0.7
	maxDepreciation    = -50.0
	maxFloorPremium    = 25.0
)

// Floor returns the floor-level premium in percent. Ground-level property
// types and floors at or below zero carry no premium.
func Floor(floor int, propertyType string) float64 {
	if floor <= 0 || model.IsGroundLevel(propertyType) {
		return 0
	}
	f := float64(min(floor, maxFloor))
	switch {
	case f <= 5:
		return f
	case f <= 15:
		return 5 + (f-5)*0.5
	case f <= 30:
		return 10 + (f-15)*0.3
	default:
		return math.Min(14.5+(f-30)*0.2, maxFloorPremium)
	}
}

// Age returns the age premium in percent. New and off-plan property gets
// +5%; depreciation is dampened for villas.
func Age(age int, propertyType string, offPlan bool) float64 {
	if offPlan || age <= 0 {
		return newPropertyPremium
	}
	a := float64(min(age, maxAge))
	factor := 1.0
	if model.IsVilla(propertyType) {
		factor = villaDampening
	}
	switch {
	case a <= 3:
		return 0
	case a <= 10:
		return -(a - 3) * factor
	case a <= 20:
		return (-7 - (a-10)*1.5) * factor
	case a <= 30:
		return (-22 - (a-20)*2) * factor
	default:
		return math.Max((-42-(a-30)*2.5)*factor, maxDepreciation)
	}
}
