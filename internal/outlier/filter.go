// Package outlier rejects implausible prices per market segment.
package outlier

import (
	"math"

	"github.com/sells-group/avm-cli/internal/model"
)

// Stats describes what a Filter call removed.
type Stats struct {
	Low            int     `json:"low_outliers"`
	High           int     `json:"high_outliers"`
	Extreme        int     `json:"extreme_outliers"`
	Removed        int     `json:"total_removed"`
	PercentRemoved float64 `json:"percent_removed"`
	OriginalCount  int     `json:"original_count"`
	FilteredCount  int     `json:"filtered_count"`
	MinThreshold   float64 `json:"min_threshold"`
	MaxThreshold   float64 `json:"max_threshold"`
}

// Filter keeps prices within the segment bounds. A price above the extreme
// ceiling counts as both high and extreme, so Extreme is a subset of High.
// Empty input yields zeroed stats.
func Filter(prices []float64, segment model.Segment) ([]float64, Stats) {
	return FilterFunc(prices, segment, func(p float64) float64 { return p })
}

// FilterFunc applies the segment bounds to any slice, reading each price
// through price. Order is preserved.
func FilterFunc[T any](items []T, segment model.Segment, price func(T) float64) ([]T, Stats) {
	b := segment.Bounds()
	stats := Stats{
		OriginalCount: len(items),
		MinThreshold:  b.Min,
		MaxThreshold:  b.Max,
	}
	if len(items) == 0 {
		return []T{}, Stats{}
	}

	kept := make([]T, 0, len(items))
	for _, it := range items {
		p := price(it)
		switch {
		case math.IsNaN(p) || p < b.Min:
			stats.Low++
		case p > b.Max:
			stats.High++
			if p > b.ExtremeCeiling {
				stats.Extreme++
			}
		default:
			kept = append(kept, it)
		}
	}

	stats.FilteredCount = len(kept)
	stats.Removed = stats.OriginalCount - stats.FilteredCount
	stats.PercentRemoved = math.Round(float64(stats.Removed)/float64(stats.OriginalCount)*10000) / 100
	return kept, stats
}
