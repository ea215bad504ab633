package scorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/outlier"
	"github.com/sells-group/avm-cli/internal/store"
)

// Confidence labels shared by the arbitrage and flip scores.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// MarketValue is the sale-side reference price of a unit.
type MarketValue struct {
	Price       float64 `json:"market_value"`
	Comparables int     `json:"comparables"`
	AreaAverage bool    `json:"is_area_average"`
}

// YieldComponent is the rent half of an arbitrage score.
type YieldComponent struct {
	Value         float64 `json:"value"`
	Score         int     `json:"score"`
	MarketRent    float64 `json:"market_rent"`
	Comparables   int     `json:"comparables"`
	IsCityAverage bool    `json:"is_city_average"`
}

// SpreadComponent is the price half of an arbitrage score.
type SpreadComponent struct {
	Value       float64 `json:"value"`
	Score       int     `json:"score"`
	MarketValue float64 `json:"market_value"`
	AskingPrice float64 `json:"asking_price"`
	Comparables int     `json:"comparables"`
	AreaAverage bool    `json:"is_area_average"`
}

// ArbitrageResult scores buying at an asking price to rent out.
type ArbitrageResult struct {
	Score       int     `json:"arbitrage_score"`
	RentalYield float64 `json:"rental_yield"`
	ValueSpread float64 `json:"value_spread_pct"`
	MarketRent  float64 `json:"market_rent"`
	MarketValue float64 `json:"market_value"`
	Confidence  string  `json:"confidence"`
	Breakdown   struct {
		RentalYield YieldComponent  `json:"rental_yield"`
		ValueSpread SpreadComponent `json:"value_spread"`
	} `json:"breakdown"`
}

// Arbitrage scores an asking price against the market rent and the market
// sale value of comparable units. The two sides are searched concurrently.
func (s *Scorer) Arbitrage(ctx context.Context, req model.ArbitrageRequest) (*ArbitrageResult, error) {
	var (
		rent  *RentalSummary
		value *MarketValue
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		rent, err = s.RentalSummary(ctx, req.Area, req.PropertyType, req.Size)
		return err
	})
	g.Go(func() error {
		var err error
		value, err = s.MarketValue(ctx, req.Area, req.PropertyType, req.Size)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := ScoreArbitrage(req.AskingPrice, rent.AnnualRent, value.Price)
	res.Breakdown.RentalYield.Comparables = rent.Comparables
	res.Breakdown.RentalYield.IsCityAverage = rent.IsCityAverage
	res.Breakdown.ValueSpread.Comparables = value.Comparables
	res.Breakdown.ValueSpread.AreaAverage = value.AreaAverage
	res.Confidence = ArbitrageConfidence(rent.Comparables + value.Comparables)

	zap.L().Info("scorer: arbitrage scored",
		zap.String("area", req.Area),
		zap.String("property_type", req.PropertyType),
		zap.Int("score", res.Score),
		zap.Float64("rental_yield", res.RentalYield),
		zap.Float64("value_spread_pct", res.ValueSpread),
		zap.String("confidence", res.Confidence),
	)
	return res, nil
}

// MarketValue returns the median sale price of same-type units within the
// size band sold in the area during the lookback. With too few rows it falls
// back to the mean over all sizes, which contributes no comparables.
func (s *Scorer) MarketValue(ctx context.Context, area, propertyType string, size float64) (*MarketValue, error) {
	f := store.MarketFilter{
		Area:         area,
		PropertyType: propertyType,
		Since:        s.since(s.cfg.LookbackMonths),
		Limit:        s.cfg.ListLimit,
	}
	sales, err := s.src.ListSales(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: list sales")
	}
	sales, _ = outlier.FilterFunc(sales, model.Sale, func(t model.Transaction) float64 { return t.Price })
	if len(sales) == 0 {
		return nil, ErrNoSaleData
	}

	lo, hi := s.sizeBand(size)
	var banded, all []float64
	for _, t := range sales {
		all = append(all, t.Price)
		if t.Size >= lo && t.Size <= hi {
			banded = append(banded, t.Price)
		}
	}
	if len(banded) >= s.cfg.MinSaleSample {
		return &MarketValue{Price: estimate.Median(banded), Comparables: len(banded)}, nil
	}
	return &MarketValue{Price: estimate.Mean(all), AreaAverage: true}, nil
}

// ScoreArbitrage computes the yield and spread metrics and their points.
// Metrics are rounded to two decimals before banding.
func ScoreArbitrage(askingPrice, marketRent, marketValue float64) *ArbitrageResult {
	var yield, spread float64
	if askingPrice > 0 {
		yield = estimate.Round2(marketRent / askingPrice * 100)
	}
	if marketValue > 0 {
		spread = estimate.Round2((marketValue - askingPrice) / marketValue * 100)
	}

	res := &ArbitrageResult{
		RentalYield: yield,
		ValueSpread: spread,
		MarketRent:  marketRent,
		MarketValue: marketValue,
	}
	res.Breakdown.RentalYield = YieldComponent{Value: yield, Score: yieldPoints(yield), MarketRent: marketRent}
	res.Breakdown.ValueSpread = SpreadComponent{
		Value:       spread,
		Score:       spreadPoints(spread),
		MarketValue: marketValue,
		AskingPrice: askingPrice,
	}
	res.Score = res.Breakdown.RentalYield.Score + res.Breakdown.ValueSpread.Score
	return res
}

func yieldPoints(yield float64) int {
	switch {
	case yield >= 8:
		return 50
	case yield >= 6:
		return 40
	case yield >= 4:
		return 30
	case yield >= 3:
		return 20
	default:
		return 10
	}
}

func spreadPoints(spread float64) int {
	switch {
	case spread >= 20:
		return 50
	case spread >= 10:
		return 40
	case spread >= 5:
		return 30
	case spread >= 0:
		return 20
	case spread >= -5:
		return 10
	default:
		return 0
	}
}

// ArbitrageConfidence labels the combined comparable count.
func ArbitrageConfidence(comparables int) string {
	switch {
	case comparables >= 20:
		return ConfidenceHigh
	case comparables >= 10:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
