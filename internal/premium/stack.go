package premium

import "math"

// Display bounds of the combined premium.
const (
	MinCombined = -20.0
	MaxCombined = 70.0
)

// Component names, in application order.
const (
	NameLocation = "location"
	NameProject  = "project"
	NameFloor    = "floor"
	NameView     = "view"
	NameAge      = "age"
)

// Adjustment is one premium applied to the running value.
type Adjustment struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

// StackResult is the outcome of applying premiums to a base value.
type StackResult struct {
	Base        float64      `json:"base_value"`
	Final       float64      `json:"final_value"`
	Adjustments []Adjustment `json:"adjustments"`
	RawSum      float64      `json:"uncapped_premium"`
	Combined    float64      `json:"combined_premium"`
}

// Apply compounds each percentage onto the value left by the previous one.
// Combined is the plain sum clamped to [-20, 70]; it is a display figure and
// does not equal the compounded change.
func Apply(base float64, components []Adjustment) StackResult {
	res := StackResult{Base: base, Final: base}
	for _, c := range components {
		res.RawSum += c.Percent
		if c.Percent == 0 {
			res.Adjustments = append(res.Adjustments, Adjustment{Name: c.Name})
			continue
		}
		amount := res.Final * c.Percent / 100
		res.Final += amount
		res.Adjustments = append(res.Adjustments, Adjustment{Name: c.Name, Percent: c.Percent, Amount: math.Round(amount)})
	}
	res.Combined = math.Round(clamp(res.RawSum, MinCombined, MaxCombined)*100) / 100
	res.RawSum = math.Round(res.RawSum*100) / 100
	return res
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
