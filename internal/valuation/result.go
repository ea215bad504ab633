package valuation

import (
	"time"

	"github.com/sells-group/avm-cli/internal/comparable"
	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/outlier"
	"github.com/sells-group/avm-cli/internal/premium"
	"github.com/sells-group/avm-cli/internal/scorer"
)

const maxListedComparables = 10

// ValueRange is the band around the estimate.
type ValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Comparable is a sale listed as evidence on a valuation.
type Comparable struct {
	AreaName     string    `json:"area_name"`
	PropertyType string    `json:"property_type"`
	Size         float64   `json:"area_sqm"`
	Price        float64   `json:"sold_price"`
	PricePerArea float64   `json:"price_per_sqm"`
	Project      string    `json:"project,omitempty"`
	Date         time.Time `json:"transaction_date"`
}

func listComparables(txs []model.Transaction) []Comparable {
	n := min(len(txs), maxListedComparables)
	out := make([]Comparable, n)
	for i, t := range txs[:n] {
		out[i] = Comparable{
			AreaName:     t.AreaName,
			PropertyType: t.PropertyType,
			Size:         t.Size,
			Price:        t.Price,
			PricePerArea: estimate.Round2(t.PricePerArea()),
			Project:      t.Project,
			Date:         t.Date,
		}
	}
	return out
}

// Premiums groups the premium stack with the location and project detail.
type Premiums struct {
	Stack    premium.StackResult    `json:"stack"`
	Location premium.LocationResult `json:"location"`
	Project  premium.ProjectResult  `json:"project"`
	Floor    float64                `json:"floor_premium"`
	View     float64                `json:"view_premium"`
	Age      float64                `json:"age_premium"`
}

// Rental is the rental summary attached to a valuation.
type Rental struct {
	scorer.RentalSummary
	Yield float64 `json:"gross_yield"`
}

// Metadata records how a valuation was produced.
type Metadata struct {
	Scope       comparable.Scope `json:"scope"`
	Method      string           `json:"method"`
	ModelStatus string           `json:"model_status"`
	Candidates  int              `json:"candidates"`
	Cleaned     int              `json:"cleaned"`
	Trimmed     int              `json:"trimmed"`
	SampleSize  int              `json:"sample_size"`
	Outliers    outlier.Stats    `json:"outliers"`
	CacheStatus string           `json:"cache_status"`
	Warnings    []string         `json:"warnings,omitempty"`
	ValuedAt    time.Time        `json:"valued_at"`
	Duration    time.Duration    `json:"duration_ns"`
}

// ValuationResult is the outcome of a valuation.
type ValuationResult struct {
	ID           string                   `json:"id"`
	Value        float64                  `json:"estimated_value"`
	Confidence   int                      `json:"confidence_score"`
	PricePerArea float64                  `json:"price_per_sqm"`
	Segment      estimate.Segment         `json:"segment"`
	Range        ValueRange               `json:"value_range"`
	Estimate     estimate.Estimate        `json:"estimate"`
	Scoring      estimate.ConfidenceScore `json:"confidence"`
	Premiums     Premiums                 `json:"premiums"`
	Rental       *Rental                  `json:"rental_data,omitempty"`
	Comparables  []Comparable             `json:"comparables"`
	Metadata     Metadata                 `json:"metadata"`
}
