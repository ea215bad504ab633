// Package scorer derives investment scores from recent sale and lease
// activity: the rental summary of a unit, its arbitrage opportunity against
// an asking price, and its flip potential.
package scorer

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/store"
)

var (
	// ErrNoLeaseData means neither the size-matched nor the city-wide lease
	// search found enough rows.
	ErrNoLeaseData = errors.New("scorer: insufficient lease data")
	// ErrNoSaleData means no recent sale exists for the area and type.
	ErrNoSaleData = errors.New("scorer: insufficient sale data")
)

// Market lists recent sale and lease records.
type Market interface {
	ListSales(ctx context.Context, filter store.MarketFilter) ([]model.Transaction, error)
	ListLeases(ctx context.Context, filter store.MarketFilter) ([]model.LeaseRecord, error)
}

// Config tunes the market searches.
type Config struct {
	LookbackMonths     int     `yaml:"lookback_months" mapstructure:"lookback_months"`
	RecentMonths       int     `yaml:"recent_months" mapstructure:"recent_months"`
	SizeTolerance      float64 `yaml:"size_tolerance" mapstructure:"size_tolerance"`
	MinLeaseSample     int     `yaml:"min_lease_sample" mapstructure:"min_lease_sample"`
	MinCityLeaseSample int     `yaml:"min_city_lease_sample" mapstructure:"min_city_lease_sample"`
	MinSaleSample      int     `yaml:"min_sale_sample" mapstructure:"min_sale_sample"`
	ListLimit          int     `yaml:"list_limit" mapstructure:"list_limit"`
}

// DefaultConfig returns the standard market settings.
func DefaultConfig() Config {
	return Config{
		LookbackMonths:     12,
		RecentMonths:       6,
		SizeTolerance:      store.DefaultSizeTolerance,
		MinLeaseSample:     3,
		MinCityLeaseSample: 10,
		MinSaleSample:      3,
		ListLimit:          5000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LookbackMonths <= 0 {
		c.LookbackMonths = d.LookbackMonths
	}
	if c.RecentMonths <= 0 {
		c.RecentMonths = d.RecentMonths
	}
	if c.SizeTolerance <= 0 {
		c.SizeTolerance = d.SizeTolerance
	}
	if c.MinLeaseSample <= 0 {
		c.MinLeaseSample = d.MinLeaseSample
	}
	if c.MinCityLeaseSample <= 0 {
		c.MinCityLeaseSample = d.MinCityLeaseSample
	}
	if c.MinSaleSample <= 0 {
		c.MinSaleSample = d.MinSaleSample
	}
	if c.ListLimit <= 0 {
		c.ListLimit = d.ListLimit
	}
	return c
}

// Scorer computes rental summaries, arbitrage and flip scores.
type Scorer struct {
	src Market
	cfg Config
	now func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock sets the clock the lookback windows are measured from.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New creates a Scorer over src. Zero config fields take their defaults.
func New(src Market, cfg Config, opts ...Option) *Scorer {
	s := &Scorer{src: src, cfg: cfg.withDefaults(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scorer) since(months int) time.Time {
	return s.now().UTC().AddDate(0, -months, 0)
}

func (s *Scorer) sizeBand(size float64) (lo, hi float64) {
	return size * (1 - s.cfg.SizeTolerance), size * (1 + s.cfg.SizeTolerance)
}
