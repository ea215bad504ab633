package comparable

import (
	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
)

// minTrimSample is the smallest set the percentile trim is applied to.
const minTrimSample = 3

// Trim drops rows whose price per area falls outside the [low, high]
// quantiles of the set. Order is preserved. Sets smaller than three rows
// are returned as is.
func Trim(rows []model.Transaction, low, high float64) []model.Transaction {
	if len(rows) < minTrimSample {
		return rows
	}
	ppa := make([]float64, len(rows))
	for i, t := range rows {
		ppa[i] = t.PricePerArea()
	}
	lo := estimate.Quantile(ppa, low)
	hi := estimate.Quantile(ppa, high)

	out := make([]model.Transaction, 0, len(rows))
	for i, t := range rows {
		if ppa[i] >= lo && ppa[i] <= hi {
			out = append(out, t)
		}
	}
	return out
}
