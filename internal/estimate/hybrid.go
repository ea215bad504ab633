// Package estimate blends comparable-sales statistics with an optional
// regression model and scores the confidence of the result.
package estimate

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/resilience"
	"github.com/sells-group/avm-cli/pkg/predictor"
)

// Valuation methods.
const (
	MethodRuleBased = "rule_based"
	MethodHybrid    = "hybrid"
)

// Model outcomes recorded on an estimate.
const (
	ModelOK          = "ok"
	ModelDisabled    = "disabled"
	ModelUnavailable = "unavailable"
	ModelError       = "error"
)

const (
	medianPriceWeight = 0.7
	sizeBasedWeight   = 0.3
	maxMLWeight       = 0.70
)

// Estimate is the blended value of a subject property.
type Estimate struct {
	Value              float64  `json:"value"`
	RuleBased          float64  `json:"rule_based_estimate"`
	SizeBased          float64  `json:"size_based_estimate"`
	MedianPrice        float64  `json:"median_price"`
	MedianPricePerArea float64  `json:"median_price_per_sqm"`
	StdDev             float64  `json:"price_std"`
	Method             string   `json:"method"`
	ModelStatus        string   `json:"model_status"`
	MLPrice            *float64 `json:"ml_price,omitempty"`
	MLConfidence       *float64 `json:"ml_confidence,omitempty"`
	MLWeight           float64  `json:"ml_weight"`
}

// Estimator computes the rule-based estimate and, when a predictor is
// configured, blends in its prediction weighted by its confidence.
type Estimator struct {
	predictor predictor.Client
	breaker   *resilience.Breaker
	timeout   time.Duration
	observe   func(status string)
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithBreaker guards predictor calls with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(e *Estimator) { e.breaker = b }
}

// WithTimeout bounds each predictor call.
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) { e.timeout = d }
}

// WithObserver receives the model status of every estimate.
func WithObserver(fn func(status string)) Option {
	return func(e *Estimator) { e.observe = fn }
}

// NewEstimator creates an Estimator. p may be nil, in which case every
// estimate is rule-based.
func NewEstimator(p predictor.Client, opts ...Option) *Estimator {
	e := &Estimator{predictor: p, timeout: 2 * time.Second}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Estimate values the subject from comps, which must be non-empty. The
// first comparable supplies the categorical context for the predictor.
func (e *Estimator) Estimate(ctx context.Context, req model.ValuationRequest, comps []model.Transaction) (*Estimate, error) {
	if len(comps) == 0 {
		return nil, eris.New("estimate: no comparables")
	}
	if req.Size <= 0 {
		return nil, eris.New("estimate: size must be positive")
	}

	prices := make([]float64, len(comps))
	ppa := make([]float64, len(comps))
	for i, c := range comps {
		prices[i] = c.Price
		ppa[i] = c.PricePerArea()
	}

	est := &Estimate{
		MedianPrice:        Median(prices),
		MedianPricePerArea: Median(ppa),
		StdDev:             StdDev(prices),
		Method:             MethodRuleBased,
		ModelStatus:        ModelDisabled,
	}
	est.SizeBased = est.MedianPricePerArea * req.Size
	est.RuleBased = medianPriceWeight*est.MedianPrice + sizeBasedWeight*est.SizeBased
	est.Value = est.RuleBased

	if e.predictor != nil {
		e.blend(ctx, est, Features(req, comps[0]))
	}
	if e.observe != nil {
		e.observe(est.ModelStatus)
	}
	return est, nil
}

func (e *Estimator) blend(ctx context.Context, est *Estimate, f predictor.Features) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	call := func(ctx context.Context) (*predictor.Prediction, error) {
		return e.predictor.Predict(ctx, f)
	}
	var (
		p   *predictor.Prediction
		err error
	)
	if e.breaker != nil {
		p, err = resilience.Call(callCtx, e.breaker, call)
	} else {
		p, err = call(callCtx)
	}

	if err == nil && p == nil {
		err = eris.New("estimate: predictor returned no prediction")
	}
	if err == nil {
		err = p.Validate()
	}

	switch {
	case err == nil:
	case errors.Is(err, predictor.ErrUnavailable) || errors.Is(err, resilience.ErrCircuitOpen):
		est.ModelStatus = ModelUnavailable
		zap.L().Info("estimate: predictor unavailable, using rule-based", zap.Error(err))
		return
	default:
		est.ModelStatus = ModelError
		zap.L().Warn("estimate: predictor failed, using rule-based", zap.Error(err))
		return
	}

	price, conf := p.PredictedPrice, p.Confidence
	w := maxMLWeight * conf
	est.MLPrice = &price
	est.MLConfidence = &conf
	est.MLWeight = w
	est.Value = w*price + (1-w)*est.RuleBased
	est.Method = MethodHybrid
	est.ModelStatus = ModelOK
}

// Features builds the predictor input from the subject and a representative
// comparable.
func Features(req model.ValuationRequest, sample model.Transaction) predictor.Features {
	return predictor.Features{
		ActualArea:      req.Size,
		Area:            req.Area,
		PropertyType:    req.PropertyType,
		Rooms:           firstNonEmpty(req.Bedrooms, sample.Rooms),
		OffPlan:         firstNonEmpty(req.DevelopmentStatus, sample.OffPlan, "No"),
		FreeHold:        firstNonEmpty(sample.FreeHold, "Yes"),
		Project:         sample.Project,
		NearestMetro:    sample.NearestMetro,
		NearestMall:     sample.NearestMall,
		NearestLandmark: sample.NearestLandmark,
		Usage:           firstNonEmpty(sample.Usage, "Residential"),
		SubType:         sample.SubType,
		ProcedureArea:   req.Size,
		TotalBuyer:      1,
		TotalSeller:     1,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
