// Package comparable finds the historical sales a valuation is based on.
// The search widens from area, type and size down to a city-wide fallback
// until enough evidence is found.
package comparable

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/outlier"
	"github.com/sells-group/avm-cli/internal/store"
)

var (
	// ErrNoComparables means the store returned no candidates at all.
	ErrNoComparables = errors.New("comparable: no comparable properties found")
	// ErrNoValidComparables means candidates existed but none survived
	// plausibility cleaning.
	ErrNoValidComparables = errors.New("comparable: no valid comparable properties after cleaning")
)

// Source runs the ranked candidate query.
type Source interface {
	SearchComparables(ctx context.Context, filter store.ComparableFilter) ([]model.Transaction, error)
}

// Config tunes the search.
type Config struct {
	Limit         int     `yaml:"candidate_limit" mapstructure:"candidate_limit"`
	MinSample     int     `yaml:"min_sample" mapstructure:"min_sample"`
	FallbackSize  int     `yaml:"fallback_size" mapstructure:"fallback_size"`
	TrimLow       float64 `yaml:"trim_low" mapstructure:"trim_low"`
	TrimHigh      float64 `yaml:"trim_high" mapstructure:"trim_high"`
	SizeTolerance float64 `yaml:"size_tolerance" mapstructure:"size_tolerance"`
	MinArea       float64 `yaml:"min_area" mapstructure:"min_area"`
	MaxArea       float64 `yaml:"max_area" mapstructure:"max_area"`
}

// DefaultConfig returns the standard search settings.
func DefaultConfig() Config {
	return Config{
		Limit:         500,
		MinSample:     5,
		FallbackSize:  20,
		TrimLow:       0.15,
		TrimHigh:      0.85,
		SizeTolerance: store.DefaultSizeTolerance,
		MinArea:       20,
		MaxArea:       2000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	if c.MinSample <= 0 {
		c.MinSample = d.MinSample
	}
	if c.FallbackSize <= 0 {
		c.FallbackSize = d.FallbackSize
	}
	if c.TrimLow <= 0 && c.TrimHigh <= 0 {
		c.TrimLow, c.TrimHigh = d.TrimLow, d.TrimHigh
	}
	if c.SizeTolerance <= 0 {
		c.SizeTolerance = d.SizeTolerance
	}
	if c.MinArea <= 0 {
		c.MinArea = d.MinArea
	}
	if c.MaxArea <= 0 {
		c.MaxArea = d.MaxArea
	}
	return c
}

// Scope tiers, from narrowest to broadest.
const (
	TierAreaTypeSize = 1
	TierAreaType     = 2
	TierArea         = 3
	TierCityType     = 4
	TierCityMixed    = 5
)

var baseConfidence = map[int]int{
	TierAreaTypeSize: 95,
	TierAreaType:     90,
	TierArea:         85,
	TierCityType:     80,
	TierCityMixed:    75,
}

// Scope describes how far the search had to widen.
type Scope struct {
	Tier           int    `json:"tier"`
	Label          string `json:"label"`
	BaseConfidence int    `json:"base_confidence"`
}

func newScope(tier int, label string) Scope {
	return Scope{Tier: tier, Label: label, BaseConfidence: baseConfidence[tier]}
}

// Set is the comparable evidence for one valuation.
type Set struct {
	Scope       Scope               `json:"scope"`
	Comparables []model.Transaction `json:"comparables"`
	Candidates  int                 `json:"candidates"`
	Cleaned     int                 `json:"cleaned"`
	Outliers    outlier.Stats       `json:"outliers"`
	Trimmed     int                 `json:"trimmed"`
}

// Searcher runs the comparable search.
type Searcher struct {
	src Source
	cfg Config
}

// NewSearcher creates a Searcher over src. Zero config fields take their
// defaults.
func NewSearcher(src Source, cfg Config) *Searcher {
	return &Searcher{src: src, cfg: cfg.withDefaults()}
}

// Search fetches ranked candidates, drops implausible rows, selects the
// narrowest scope with enough rows and trims the price-per-area tails.
func (s *Searcher) Search(ctx context.Context, f store.ComparableFilter) (*Set, error) {
	f.Limit = s.cfg.Limit
	f.SizeTolerance = s.cfg.SizeTolerance

	rows, err := s.src.SearchComparables(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "comparable: search")
	}
	if len(rows) == 0 {
		return nil, ErrNoComparables
	}

	cleaned, stats := Clean(rows, s.cfg.MinArea, s.cfg.MaxArea)
	if len(cleaned) == 0 {
		return nil, ErrNoValidComparables
	}

	scope, selected := s.selectScope(cleaned, f)
	kept := Trim(selected, s.cfg.TrimLow, s.cfg.TrimHigh)

	return &Set{
		Scope:       scope,
		Comparables: kept,
		Candidates:  len(rows),
		Cleaned:     len(cleaned),
		Outliers:    stats,
		Trimmed:     len(selected) - len(kept),
	}, nil
}

// Clean keeps rows whose size parses and lies in [minArea, maxArea] and
// whose price passes the sale outlier filter.
func Clean(rows []model.Transaction, minArea, maxArea float64) ([]model.Transaction, outlier.Stats) {
	sized := make([]model.Transaction, 0, len(rows))
	for _, t := range rows {
		if !t.ParseSize() || t.Size < minArea || t.Size > maxArea {
			continue
		}
		sized = append(sized, t)
	}
	return outlier.FilterFunc(sized, model.Sale, func(t model.Transaction) float64 { return t.Price })
}

func (s *Searcher) selectScope(rows []model.Transaction, f store.ComparableFilter) (Scope, []model.Transaction) {
	lo, hi := f.SizeRange()
	var areaTypeSize, areaType, area, ptype []model.Transaction
	for _, t := range rows {
		inArea := model.MatchesArea(t.AreaName, f.Area)
		isType := model.MatchesType(t.PropertyType, f.PropertyType)
		if inArea && isType && t.Size >= lo && t.Size <= hi {
			areaTypeSize = append(areaTypeSize, t)
		}
		if inArea && isType {
			areaType = append(areaType, t)
		}
		if inArea {
			area = append(area, t)
		}
		if isType {
			ptype = append(ptype, t)
		}
	}

	enough := func(xs []model.Transaction) bool { return len(xs) >= s.cfg.MinSample }
	switch {
	case enough(areaTypeSize):
		return newScope(TierAreaTypeSize, fmt.Sprintf("area + type + size (%s)", f.Area)), areaTypeSize
	case enough(areaType):
		return newScope(TierAreaType, fmt.Sprintf("area + type (%s)", f.Area)), areaType
	case enough(area):
		return newScope(TierArea, fmt.Sprintf("area-wide (%s)", f.Area)), area
	case enough(ptype):
		return newScope(TierCityType, fmt.Sprintf("city-wide (%s)", f.PropertyType)), ptype
	}
	n := min(len(rows), s.cfg.FallbackSize)
	return newScope(TierCityMixed, "city-wide (mixed)"), rows[:n]
}
