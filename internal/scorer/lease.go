package scorer

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/outlier"
	"github.com/sells-group/avm-cli/internal/store"
)

// RentalSummary is the market rent of a unit derived from recent leases.
type RentalSummary struct {
	AnnualRent    float64 `json:"annual_rent"`
	RentLow       float64 `json:"rent_range_low"`
	RentHigh      float64 `json:"rent_range_high"`
	Comparables   int     `json:"comparables"`
	IsCityAverage bool    `json:"is_city_average"`
	Scope         string  `json:"scope"`
}

// GrossYield returns annual rent over price in percent, or 0 when the price
// is not positive.
func (r RentalSummary) GrossYield(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return estimate.Round2(r.AnnualRent / price * 100)
}

// RentalSummary finds leases of the same type and size band in the area
// within the lookback. With too few rows it widens to the whole city for the
// type and size band, where the mean rent is used.
func (s *Scorer) RentalSummary(ctx context.Context, area, propertyType string, size float64) (*RentalSummary, error) {
	lo, hi := s.sizeBand(size)
	f := store.MarketFilter{
		Area:         area,
		PropertyType: propertyType,
		MinSize:      lo,
		MaxSize:      hi,
		Since:        s.since(s.cfg.LookbackMonths),
		Limit:        s.cfg.ListLimit,
	}

	rents, err := s.rents(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(rents) >= s.cfg.MinLeaseSample {
		return &RentalSummary{
			AnnualRent:  estimate.Round2(estimate.Median(rents)),
			RentLow:     estimate.Round2(estimate.Quantile(rents, 0.25)),
			RentHigh:    estimate.Round2(estimate.Quantile(rents, 0.75)),
			Comparables: len(rents),
			Scope:       fmt.Sprintf("area + type + size (%s)", area),
		}, nil
	}

	f.Area = ""
	city, err := s.rents(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(city) < s.cfg.MinCityLeaseSample {
		return nil, ErrNoLeaseData
	}
	return &RentalSummary{
		AnnualRent:    estimate.Round2(estimate.Mean(city)),
		RentLow:       estimate.Round2(estimate.Quantile(city, 0.25)),
		RentHigh:      estimate.Round2(estimate.Quantile(city, 0.75)),
		Comparables:   len(city),
		IsCityAverage: true,
		Scope:         fmt.Sprintf("city-wide (%s)", propertyType),
	}, nil
}

// rents lists leases and returns the rents that pass the lease outlier
// filter.
func (s *Scorer) rents(ctx context.Context, f store.MarketFilter) ([]float64, error) {
	leases, err := s.src.ListLeases(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: list leases")
	}
	rents := make([]float64, len(leases))
	for i, l := range leases {
		rents[i] = l.AnnualRent
	}
	kept, _ := outlier.Filter(rents, model.Lease)
	return kept, nil
}
