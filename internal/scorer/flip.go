package scorer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/store"
)

// Flip component weights in percent.
const (
	appreciationWeight = 35
	liquidityWeight    = 25
	yieldWeight        = 25
	segmentWeight      = 15
)

const (
	neutralScore        = 50
	neutralSegmentScore = 70
	defaultFlipYield    = 5.0
	maxQuarters         = 4
)

// FlipComponent is one weighted input of a flip score.
type FlipComponent struct {
	Score        int     `json:"score"`
	Weight       int     `json:"weight"`
	Contribution float64 `json:"contribution"`
	Details      string  `json:"details"`
	Error        string  `json:"error,omitempty"`
}

func newComponent(score, weight int, details string) FlipComponent {
	return FlipComponent{
		Score:        score,
		Weight:       weight,
		Contribution: estimate.Round2(float64(score*weight) / 100),
		Details:      details,
	}
}

// FlipBreakdown holds the four flip components.
type FlipBreakdown struct {
	Appreciation FlipComponent `json:"price_appreciation"`
	Liquidity    FlipComponent `json:"liquidity"`
	Yield        FlipComponent `json:"rental_yield"`
	Segment      FlipComponent `json:"market_position"`
}

// FlipDataQuality describes the evidence behind a flip score.
type FlipDataQuality struct {
	TransactionsAnalyzed int    `json:"transactions_analyzed"`
	RentalComparables    int    `json:"rental_comparables"`
	DateRange            string `json:"date_range"`
}

// FlipResult is the short-hold resale potential of a unit, from 1 to 100.
type FlipResult struct {
	Score          int             `json:"flip_score"`
	Rating         string          `json:"rating"`
	Recommendation string          `json:"recommendation"`
	Confidence     string          `json:"confidence"`
	Breakdown      FlipBreakdown   `json:"breakdown"`
	DataQuality    FlipDataQuality `json:"data_quality"`
}

var flipRatings = []struct {
	min            int
	rating         string
	recommendation string
}{
	{80, "Excellent Flip Potential", "Outstanding flip potential with strong appreciation, high liquidity and good returns."},
	{60, "Good Flip Potential", "Solid flip potential with favorable market conditions and reasonable returns."},
	{40, "Moderate Flip Potential", "Moderate flip potential. Consider holding period and market timing carefully."},
	{math.MinInt, "Low Flip Potential", "Limited flip potential. Better suited for long-term investment or rental income."},
}

// Flip scores the resale potential of a unit from price appreciation,
// transaction volume, rental yield and market segment. A component whose
// data cannot be read scores neutral and records the error.
func (s *Scorer) Flip(ctx context.Context, req model.FlipRequest) (*FlipResult, error) {
	var (
		sales             []model.Transaction
		leases            []float64
		salesErr, rentErr error
		fallbackRent      bool
	)

	var g errgroup.Group
	g.Go(func() error {
		sales, salesErr = s.src.ListSales(ctx, store.MarketFilter{
			Area:         req.Area,
			PropertyType: req.PropertyType,
			Since:        s.since(s.cfg.LookbackMonths),
			Limit:        s.cfg.ListLimit,
		})
		return nil
	})
	g.Go(func() error {
		leases, fallbackRent, rentErr = s.flipRents(ctx, req)
		return nil
	})
	_ = g.Wait()

	now := s.now().UTC()
	res := &FlipResult{}

	var appreciationTx int
	if salesErr != nil {
		msg := eris.Wrap(salesErr, "scorer: list sales").Error()
		res.Breakdown.Appreciation = degraded(neutralScore, appreciationWeight, "Error calculating appreciation", msg)
		res.Breakdown.Liquidity = degraded(neutralScore, liquidityWeight, "Error calculating liquidity", msg)
		res.Breakdown.Segment = degraded(neutralSegmentScore, segmentWeight, "Error determining segment", msg)
		res.DataQuality.DateRange = "N/A to N/A"
	} else {
		a := Appreciation(sales)
		appreciationTx = a.Transactions
		res.Breakdown.Appreciation = newComponent(a.Score, appreciationWeight, a.Details)
		res.DataQuality.DateRange = a.Start + " to " + a.End

		score := liquidityScore(len(sales))
		res.Breakdown.Liquidity = newComponent(score, liquidityWeight,
			fmt.Sprintf("%d transactions in last %d months", len(sales), s.cfg.LookbackMonths))

		segScore, segLabel := flipSegment(medianPPA(sales, time.Time{}))
		res.Breakdown.Segment = newComponent(segScore, segmentWeight, "Market segment: "+segLabel)
	}

	switch {
	case rentErr != nil:
		res.Breakdown.Yield = degraded(neutralScore, yieldWeight, "Error calculating yield",
			rentErr.Error())
	case salesErr != nil:
		res.Breakdown.Yield = degraded(neutralScore, yieldWeight, "Error calculating yield",
			eris.Wrap(salesErr, "scorer: list sales").Error())
	default:
		yield := defaultFlipYield
		recent := medianPPA(sales, now.AddDate(0, -s.cfg.RecentMonths, 0))
		if len(leases) > 0 && recent > 0 {
			rent := estimate.Median(leases)
			if fallbackRent {
				rent = estimate.Mean(leases)
			}
			yield = rent / (recent * req.Size) * 100
		}
		res.Breakdown.Yield = newComponent(flipYieldScore(yield), yieldWeight,
			fmt.Sprintf("Rental yield: %.1f%%", yield))
		res.DataQuality.RentalComparables = len(leases)
	}

	b := res.Breakdown
	weighted := float64(b.Appreciation.Score*appreciationWeight+
		b.Liquidity.Score*liquidityWeight+
		b.Yield.Score*yieldWeight+
		b.Segment.Score*segmentWeight) / 100
	res.Score = clampInt(int(math.Round(weighted)), 1, 100)

	for _, r := range flipRatings {
		if res.Score >= r.min {
			res.Rating, res.Recommendation = r.rating, r.recommendation
			break
		}
	}

	liquidityTx := 0
	if salesErr == nil {
		liquidityTx = len(sales)
	}
	total := appreciationTx + liquidityTx
	res.DataQuality.TransactionsAnalyzed = total
	res.Confidence = flipConfidence(total)

	zap.L().Info("scorer: flip scored",
		zap.String("area", req.Area),
		zap.String("property_type", req.PropertyType),
		zap.Int("score", res.Score),
		zap.String("rating", res.Rating),
		zap.String("confidence", res.Confidence),
	)
	return res, nil
}

func degraded(score, weight int, details, errMsg string) FlipComponent {
	c := newComponent(score, weight, details)
	c.Error = errMsg
	return c
}

// flipRents returns size-matched rents, or the area-wide rents for the type
// when fewer than the minimum sample match. The flag reports the fallback.
func (s *Scorer) flipRents(ctx context.Context, req model.FlipRequest) ([]float64, bool, error) {
	lo, hi := s.sizeBand(req.Size)
	f := store.MarketFilter{
		Area:         req.Area,
		PropertyType: req.PropertyType,
		MinSize:      lo,
		MaxSize:      hi,
		Since:        s.since(s.cfg.LookbackMonths),
		Limit:        s.cfg.ListLimit,
	}
	rents, err := s.rents(ctx, f)
	if err != nil {
		return nil, false, err
	}
	if len(rents) >= s.cfg.MinLeaseSample {
		return rents, false, nil
	}
	f.MinSize, f.MaxSize = 0, 0
	rents, err = s.rents(ctx, f)
	if err != nil {
		return nil, false, err
	}
	return rents, true, nil
}

// AppreciationResult is the price trend over the most recent quarters.
type AppreciationResult struct {
	Score        int     `json:"score"`
	Growth       float64 `json:"growth_pct"`
	Quarters     int     `json:"quarters"`
	Transactions int     `json:"transactions"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Details      string  `json:"details"`
}

type quarter struct {
	year, q int
	sum     float64
	n       int
}

func (q quarter) label() string { return fmt.Sprintf("%d-Q%d", q.year, q.q) }

// Appreciation groups sales by calendar quarter, keeps the latest four and
// compares the average price per area of the latest against the oldest.
// Fewer than two quarters scores neutral.
func Appreciation(sales []model.Transaction) AppreciationResult {
	byKey := make(map[[2]int]*quarter)
	for _, t := range sales {
		ppa := t.PricePerArea()
		if ppa <= 0 {
			continue
		}
		d := t.Date.UTC()
		k := [2]int{d.Year(), (int(d.Month())-1)/3 + 1}
		q, ok := byKey[k]
		if !ok {
			q = &quarter{year: k[0], q: k[1]}
			byKey[k] = q
		}
		q.sum += ppa
		q.n++
	}

	quarters := make([]*quarter, 0, len(byKey))
	for _, q := range byKey {
		quarters = append(quarters, q)
	}
	sort.Slice(quarters, func(i, j int) bool {
		if quarters[i].year != quarters[j].year {
			return quarters[i].year > quarters[j].year
		}
		return quarters[i].q > quarters[j].q
	})
	if len(quarters) > maxQuarters {
		quarters = quarters[:maxQuarters]
	}

	if len(quarters) < 2 {
		return AppreciationResult{
			Score:    neutralScore,
			Quarters: len(quarters),
			Start:    "N/A",
			End:      "N/A",
			Details:  "Insufficient data for trend analysis",
		}
	}

	latest, oldest := quarters[0], quarters[len(quarters)-1]
	latestAvg := latest.sum / float64(latest.n)
	oldestAvg := oldest.sum / float64(oldest.n)
	var growth float64
	if oldestAvg > 0 {
		growth = (latestAvg - oldestAvg) / oldestAvg * 100
	}

	n := 0
	for _, q := range quarters {
		n += q.n
	}

	var score int
	switch {
	case growth >= 5:
		score = 100
	case growth >= 2:
		score = 70
	case growth >= 0:
		score = 40
	default:
		score = 20
	}

	return AppreciationResult{
		Score:        score,
		Growth:       estimate.Round2(growth),
		Quarters:     len(quarters),
		Transactions: n,
		Start:        oldest.label(),
		End:          latest.label(),
		Details:      fmt.Sprintf("QoQ growth: %.1f%%", growth),
	}
}

func liquidityScore(count int) int {
	switch {
	case count >= 50:
		return 100
	case count >= 20:
		return 70
	case count >= 5:
		return 40
	default:
		return 20
	}
}

func flipYieldScore(yield float64) int {
	switch {
	case yield >= 8:
		return 100
	case yield >= 6:
		return 80
	case yield >= 4:
		return 60
	default:
		return 30
	}
}

// flipSegment favors the mid market, where resale is quickest. Zero means
// no data.
func flipSegment(ppa float64) (int, string) {
	switch {
	case ppa <= 0:
		return neutralSegmentScore, "Mid-Tier"
	case ppa >= 40_000:
		return 40, "Ultra-Luxury"
	case ppa >= 20_000:
		return 60, "Luxury"
	case ppa >= 12_000:
		return 85, "Premium"
	case ppa >= 8_000:
		return 100, "Mid-Tier"
	default:
		return 70, "Budget"
	}
}

func flipConfidence(transactions int) string {
	switch {
	case transactions >= 30:
		return ConfidenceHigh
	case transactions >= 10:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// medianPPA is the median price per area of sales on or after since.
func medianPPA(sales []model.Transaction, since time.Time) float64 {
	var ppa []float64
	for _, t := range sales {
		if t.Date.Before(since) {
			continue
		}
		if v := t.PricePerArea(); v > 0 {
			ppa = append(ppa, v)
		}
	}
	return estimate.Median(ppa)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
