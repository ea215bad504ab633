// Package premium computes the percentage adjustments layered on a base
// estimate: location, project, floor, view and age.
package premium

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/avm-cli/internal/model"
)

// Cache status values reported with a location premium.
const (
	CacheHit      = "HIT"
	CacheMiss     = "MISS"
	CacheNotFound = "NOT_FOUND"
	CacheError    = "ERROR"
	CacheDisabled = "DISABLED"
)

const (
	defaultDistanceKM   = 10.0
	defaultNeighborhood = 3.0
	minLocation         = -20.0
	maxLocation         = 70.0
)

// distanceDecay is base - rate*km, floored at zero.
type distanceDecay struct {
	base, rate float64
}

var (
	metroDecay    = distanceDecay{15, 3}
	beachDecay    = distanceDecay{30, 6}
	mallDecay     = distanceDecay{8, 2}
	schoolDecay   = distanceDecay{5, 1}
	businessDecay = distanceDecay{10, 2}
)

func (d distanceDecay) premium(km *float64) float64 {
	dist := defaultDistanceKM
	if km != nil {
		dist = *km
	}
	return math.Max(0, d.base-dist*d.rate)
}

// ComputeLocation derives the location premium of an area from its
// distances and neighborhood score.
func ComputeLocation(a model.AreaCoordinate) model.LocationPremium {
	score := defaultNeighborhood
	if a.NeighborhoodScore != nil {
		score = *a.NeighborhoodScore
	}

	p := model.LocationPremium{
		Metro:        metroDecay.premium(a.MetroKM),
		Beach:        beachDecay.premium(a.BeachKM),
		Mall:         mallDecay.premium(a.MallKM),
		School:       schoolDecay.premium(a.SchoolKM),
		Business:     businessDecay.premium(a.BusinessKM),
		Neighborhood: (score - defaultNeighborhood) * 4,
	}
	total := p.Metro + p.Beach + p.Mall + p.School + p.Business + p.Neighborhood

	p.Total = round2(clamp(total, minLocation, maxLocation))
	p.Metro = round2(p.Metro)
	p.Beach = round2(p.Beach)
	p.Mall = round2(p.Mall)
	p.School = round2(p.School)
	p.Business = round2(p.Business)
	p.Neighborhood = round2(p.Neighborhood)
	p.Confidence = round2(math.Min(0.95, 0.50+float64(a.DataPoints())/6*0.45))
	return p
}

// AreaSource reads area reference rows.
type AreaSource interface {
	GetAreaCoordinate(ctx context.Context, area string) (*model.AreaCoordinate, error)
}

// Cache persists computed location premiums.
type Cache interface {
	GetLocationPremium(ctx context.Context, key model.CacheKey, maxAge time.Duration) (*model.LocationCacheEntry, error)
	RecordCacheHit(ctx context.Context, key model.CacheKey) error
	UpsertLocationPremium(ctx context.Context, key model.CacheKey, p model.LocationPremium) error
}

// LocationResult is a location premium with its provenance.
type LocationResult struct {
	Premium     model.LocationPremium `json:"breakdown"`
	CacheStatus string                `json:"cache_status"`
	CacheHits   int                   `json:"cache_hits,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// LocationCalculator serves location premiums, consulting the cache first.
type LocationCalculator struct {
	areas     AreaSource
	cache     Cache // nil disables caching
	ttl       time.Duration
	amenities *AmenityIndex
}

// LocationOption configures a LocationCalculator.
type LocationOption func(*LocationCalculator)

// WithCache enables the cache with the given TTL.
func WithCache(c Cache, ttl time.Duration) LocationOption {
	return func(l *LocationCalculator) {
		l.cache = c
		l.ttl = ttl
	}
}

// WithAmenities fills unknown distances from the nearest amenity.
func WithAmenities(idx *AmenityIndex) LocationOption {
	return func(l *LocationCalculator) { l.amenities = idx }
}

// NewLocationCalculator creates a calculator reading areas from src.
func NewLocationCalculator(src AreaSource, opts ...LocationOption) *LocationCalculator {
	l := &LocationCalculator{areas: src, ttl: 24 * time.Hour}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Premium returns the location premium for the key. It never fails: lookup
// and cache errors degrade to a zero or uncached premium and are reported
// in the result.
func (l *LocationCalculator) Premium(ctx context.Context, area, propertyType, bedrooms string) LocationResult {
	key := model.NewCacheKey(area, propertyType, bedrooms)
	res := LocationResult{CacheStatus: CacheDisabled}
	log := zap.L().With(zap.String("area", key.Area), zap.String("property_type", key.PropertyType), zap.String("bedrooms", key.Bedrooms))

	if l.cache != nil {
		res.CacheStatus = CacheMiss
		entry, err := l.cache.GetLocationPremium(ctx, key, l.ttl)
		switch {
		case err != nil:
			log.Warn("premium: location cache read failed", zap.Error(err))
			res.CacheStatus = CacheError
			res.Warnings = append(res.Warnings, "location cache read failed")
		case entry != nil:
			if err := l.cache.RecordCacheHit(ctx, key); err != nil {
				log.Warn("premium: location cache hit update failed", zap.Error(err))
			}
			res.Premium = entry.Premium
			res.CacheStatus = CacheHit
			res.CacheHits = entry.CacheHits + 1
			return res
		}
	}

	coord, err := l.areas.GetAreaCoordinate(ctx, key.Area)
	if err != nil {
		log.Warn("premium: area lookup failed", zap.Error(err))
		res.CacheStatus = CacheError
		res.Warnings = append(res.Warnings, "area reference lookup failed")
		return res
	}
	if coord == nil {
		res.CacheStatus = CacheNotFound
		return res
	}
	if l.amenities != nil {
		l.amenities.Backfill(coord)
	}

	res.Premium = ComputeLocation(*coord)
	if l.cache == nil {
		return res
	}
	if err := l.cache.UpsertLocationPremium(ctx, key, res.Premium); err != nil {
		log.Warn("premium: location cache write failed", zap.Error(err))
		res.CacheStatus = CacheError
		res.Warnings = append(res.Warnings, "location cache write failed")
	}
	return res
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
