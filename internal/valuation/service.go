// Package valuation values a unit from comparable sales and layers the
// premium stack on top. It also fronts the arbitrage and flip scores.
package valuation

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/avm-cli/internal/comparable"
	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/premium"
	"github.com/sells-group/avm-cli/internal/scorer"
	"github.com/sells-group/avm-cli/internal/store"
)

const (
	rangeStdShare  = 0.12
	rangeMinMargin = 0.08
)

// Request outcomes reported to the observer.
const (
	OutcomeOK      = "ok"
	OutcomeNoData  = "no_data"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Observer receives request outcomes.
type Observer interface {
	ObserveRequest(op, outcome string, elapsed time.Duration)
	ObserveLocationCache(status string)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, time.Duration) {}
func (nopObserver) ObserveLocationCache(string)                  {}

// Deps are the collaborators of a Service.
type Deps struct {
	Searcher  *comparable.Searcher
	Estimator *estimate.Estimator
	Location  *premium.LocationCalculator
	Projects  *premium.ProjectLookup
	Views     premium.ViewRules
	Scorer    *scorer.Scorer
}

// Service values units and scores investment potential.
type Service struct {
	deps     Deps
	observer Observer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports request outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock sets the clock used for recency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. Every dependency except Views is required.
func New(d Deps, opts ...Option) (*Service, error) {
	switch {
	case d.Searcher == nil:
		return nil, eris.New("valuation: searcher is required")
	case d.Estimator == nil:
		return nil, eris.New("valuation: estimator is required")
	case d.Location == nil:
		return nil, eris.New("valuation: location calculator is required")
	case d.Projects == nil:
		return nil, eris.New("valuation: project lookup is required")
	case d.Scorer == nil:
		return nil, eris.New("valuation: scorer is required")
	}
	if d.Views.LandmarkDistrict == "" && len(d.Views.PrimeCoastal) == 0 {
		d.Views = premium.DefaultViewRules()
	}
	s := &Service{deps: d, observer: nopObserver{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Valuate estimates the market value of the unit described by req.
func (s *Service) Valuate(ctx context.Context, req model.ValuationRequest) (*ValuationResult, error) {
	start := s.now()
	res, err := s.valuate(ctx, req)
	s.observer.ObserveRequest("valuate", outcome(err), s.now().Sub(start))
	if err != nil {
		return nil, err
	}
	res.Metadata.Duration = s.now().Sub(start)
	return res, nil
}

func (s *Service) valuate(ctx context.Context, req model.ValuationRequest) (*ValuationResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	filters := filtersOf(req)

	set, err := s.deps.Searcher.Search(ctx, store.ComparableFilter{
		Area:              req.Area,
		PropertyType:      req.PropertyType,
		Size:              req.Size,
		Bedrooms:          req.Bedrooms,
		DevelopmentStatus: req.DevelopmentStatus,
		MinESGScore:       req.MinESGScore,
		MinFlipScore:      req.MinFlipScore,
	})
	switch {
	case errors.Is(err, comparable.ErrNoComparables):
		return nil, &NoDataError{Filters: filters}
	case errors.Is(err, comparable.ErrNoValidComparables):
		return nil, &DataQualityError{Filters: filters}
	case err != nil:
		return nil, eris.Wrap(err, "valuation: comparable search")
	}

	est, err := s.deps.Estimator.Estimate(ctx, req, set.Comparables)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: estimate")
	}
	now := s.now()
	conf := estimate.ScoreConfidence(set.Scope.BaseConfidence, set.Comparables, now)

	projectName := req.ProjectName
	if projectName == "" {
		projectName = set.Comparables[0].Project
	}

	// Sub-lookups degrade on failure, so none of them cancels the others.
	var (
		loc    premium.LocationResult
		proj   premium.ProjectResult
		rental *scorer.RentalSummary
		rerr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		loc = s.deps.Location.Premium(ctx, req.Area, req.PropertyType, req.Bedrooms)
		return nil
	})
	g.Go(func() error {
		proj = s.deps.Projects.Lookup(ctx, projectName)
		return nil
	})
	g.Go(func() error {
		rental, rerr = s.deps.Scorer.RentalSummary(ctx, req.Area, req.PropertyType, req.Size)
		return nil
	})
	_ = g.Wait()
	s.observer.ObserveLocationCache(loc.CacheStatus)

	var floor, view, age float64
	if req.FloorLevel != nil {
		floor = premium.Floor(*req.FloorLevel, req.PropertyType)
	}
	if req.ViewType != "" {
		view = s.deps.Views.View(req.ViewType, req.Area)
	}
	offPlan := model.IsOffPlan(req.DevelopmentStatus)
	if req.PropertyAge != nil || offPlan {
		a := 0
		if req.PropertyAge != nil {
			a = *req.PropertyAge
		}
		age = premium.Age(a, req.PropertyType, offPlan)
	}

	stack := premium.Apply(est.Value, []premium.Adjustment{
		{Name: premium.NameLocation, Percent: loc.Premium.Total},
		{Name: premium.NameProject, Percent: proj.Percentage},
		{Name: premium.NameFloor, Percent: floor},
		{Name: premium.NameView, Percent: view},
		{Name: premium.NameAge, Percent: age},
	})

	value := stack.Final
	margin := math.Max(est.StdDev*rangeStdShare, value*rangeMinMargin)
	ppa := math.Round(value / req.Size)

	res := &ValuationResult{
		ID:           uuid.NewString(),
		Value:        math.Round(value),
		Confidence:   conf.Score,
		PricePerArea: ppa,
		Segment:      estimate.ClassifySegment(ppa),
		Range:        ValueRange{Low: math.Round(value - margin), High: math.Round(value + margin)},
		Estimate:     *est,
		Scoring:      conf,
		Premiums: Premiums{
			Stack:    stack,
			Location: loc,
			Project:  proj,
			Floor:    floor,
			View:     view,
			Age:      age,
		},
		Comparables: listComparables(set.Comparables),
		Metadata: Metadata{
			Scope:       set.Scope,
			Method:      est.Method,
			ModelStatus: est.ModelStatus,
			Candidates:  set.Candidates,
			Cleaned:     set.Cleaned,
			Trimmed:     set.Trimmed,
			SampleSize:  len(set.Comparables),
			Outliers:    set.Outliers,
			CacheStatus: loc.CacheStatus,
			ValuedAt:    now.UTC(),
		},
	}
	res.Metadata.Warnings = append(res.Metadata.Warnings, loc.Warnings...)
	res.Metadata.Warnings = append(res.Metadata.Warnings, proj.Warnings...)

	switch {
	case rerr == nil:
		res.Rental = &Rental{RentalSummary: *rental, Yield: rental.GrossYield(value)}
	case errors.Is(rerr, scorer.ErrNoLeaseData):
		res.Metadata.Warnings = append(res.Metadata.Warnings, "rental data unavailable")
	default:
		zap.L().Warn("valuation: rental summary failed",
			zap.String("area", req.Area),
			zap.String("property_type", req.PropertyType),
			zap.Error(rerr),
		)
		res.Metadata.Warnings = append(res.Metadata.Warnings, "rental summary failed")
	}

	zap.L().Info("valuation: valued",
		zap.String("id", res.ID),
		zap.String("area", req.Area),
		zap.String("property_type", req.PropertyType),
		zap.String("scope", set.Scope.Label),
		zap.String("method", est.Method),
		zap.Float64("estimate", res.Value),
		zap.Int("confidence", res.Confidence),
		zap.Int("comparables", len(set.Comparables)),
	)
	return res, nil
}

// ScoreArbitrage scores buying at req.AskingPrice to rent the unit out.
func (s *Service) ScoreArbitrage(ctx context.Context, req model.ArbitrageRequest) (*scorer.ArbitrageResult, error) {
	start := s.now()
	res, err := s.scoreArbitrage(ctx, req)
	s.observer.ObserveRequest("arbitrage", outcome(err), s.now().Sub(start))
	return res, err
}

func (s *Service) scoreArbitrage(ctx context.Context, req model.ArbitrageRequest) (*scorer.ArbitrageResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	res, err := s.deps.Scorer.Arbitrage(ctx, req)
	if err == nil {
		return res, nil
	}
	filters := Filters{PropertyType: req.PropertyType, Area: req.Area, Size: req.Size}
	switch {
	case errors.Is(err, scorer.ErrNoLeaseData):
		return nil, &NoDataError{Filters: filters, Reason: "insufficient lease data"}
	case errors.Is(err, scorer.ErrNoSaleData):
		return nil, &NoDataError{Filters: filters, Reason: "insufficient sale data"}
	default:
		return nil, eris.Wrap(err, "valuation: arbitrage")
	}
}

// ScoreFlip scores the resale potential of the unit.
func (s *Service) ScoreFlip(ctx context.Context, req model.FlipRequest) (*scorer.FlipResult, error) {
	start := s.now()
	res, err := s.scoreFlip(ctx, req)
	s.observer.ObserveRequest("flip", outcome(err), s.now().Sub(start))
	return res, err
}

func (s *Service) scoreFlip(ctx context.Context, req model.FlipRequest) (*scorer.FlipResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	res, err := s.deps.Scorer.Flip(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: flip")
	}
	return res, nil
}

func filtersOf(req model.ValuationRequest) Filters {
	return Filters{
		PropertyType:      req.PropertyType,
		Area:              req.Area,
		Size:              req.Size,
		Bedrooms:          req.Bedrooms,
		DevelopmentStatus: req.DevelopmentStatus,
		MinESGScore:       req.MinESGScore,
		MinFlipScore:      req.MinFlipScore,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case IsInvalidInput(err):
		return OutcomeInvalid
	case IsNoData(err):
		return OutcomeNoData
	default:
		return OutcomeError
	}
}
