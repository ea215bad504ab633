package estimate

import (
	"math"
	"time"

	"github.com/sells-group/avm-cli/internal/model"
)

// Confidence bounds for the main valuation.
const (
	MinConfidence = 70
	MaxConfidence = 98
)

// ConfidenceScore is the valuation confidence with its adjustments.
type ConfidenceScore struct {
	Base       int     `json:"base"`
	Sample     int     `json:"sample_adjustment"`
	Recency    int     `json:"recency_adjustment"`
	Dispersion int     `json:"dispersion_adjustment"`
	CV         float64 `json:"coefficient_of_variation"`
	Score      int     `json:"score"`
}

// ScoreConfidence adjusts the scope's base confidence for sample size,
// recency and price dispersion, clamped to [70, 98].
func ScoreConfidence(base int, comps []model.Transaction, now time.Time) ConfidenceScore {
	cs := ConfidenceScore{Base: base}

	switch n := len(comps); {
	case n >= 20:
		cs.Sample = 3
	case n >= 10:
		cs.Sample = 2
	}

	if len(comps) > 0 {
		cutoff := now.AddDate(-2, 0, 0)
		recent := 0
		for _, c := range comps {
			if !c.Date.IsZero() && !c.Date.Before(cutoff) {
				recent++
			}
		}
		if float64(recent) > float64(len(comps))*0.7 {
			cs.Recency = 3
		}
	}

	prices := make([]float64, len(comps))
	for i, c := range comps {
		prices[i] = c.Price
	}
	if mean := Mean(prices); len(prices) >= 2 && mean > 0 {
		cs.CV = StdDev(prices) / mean
		switch {
		case cs.CV > 0.25:
			cs.Dispersion = -3
		case cs.CV < 0.15:
			cs.Dispersion = 2
		}
	}

	score := cs.Base + cs.Sample + cs.Recency + cs.Dispersion
	cs.Score = int(math.Min(MaxConfidence, math.Max(MinConfidence, float64(score))))
	cs.CV = math.Round(cs.CV*10000) / 10000
	return cs
}
