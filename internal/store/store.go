package store

import (
	"context"
	"time"

	"github.com/sells-group/avm-cli/internal/model"
)

// DefaultSizeTolerance is the relative size band of a size-matched search.
const DefaultSizeTolerance = 0.3

// ComparableFilter specifies a ranked comparable search.
type ComparableFilter struct {
	Area              string  `json:"area"`
	PropertyType      string  `json:"property_type"`
	Size              float64 `json:"size_sqm"`
	SizeTolerance     float64 `json:"size_tolerance,omitempty"`
	Bedrooms          string  `json:"bedrooms,omitempty"`
	DevelopmentStatus string  `json:"development_status,omitempty"`
	MinESGScore       *int    `json:"esg_score_min,omitempty"`
	MinFlipScore      *int    `json:"flip_score_min,omitempty"`
	Limit             int     `json:"limit,omitempty"`
}

// SizeRange returns the size band around the target size.
func (f ComparableFilter) SizeRange() (lo, hi float64) {
	tol := f.SizeTolerance
	if tol <= 0 {
		tol = DefaultSizeTolerance
	}
	return f.Size * (1 - tol), f.Size * (1 + tol)
}

// MarketFilter specifies a plain listing of sales or leases. Zero values
// leave the corresponding bound open.
type MarketFilter struct {
	Area         string    `json:"area,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	MinSize      float64   `json:"min_size,omitempty"`
	MaxSize      float64   `json:"max_size,omitempty"`
	Since        time.Time `json:"since,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

const (
	defaultComparableLimit = 500
	defaultMarketLimit     = 1000
)

// TransactionStore reads sale and lease records.
type TransactionStore interface {
	SearchComparables(ctx context.Context, filter ComparableFilter) ([]model.Transaction, error)
	ListSales(ctx context.Context, filter MarketFilter) ([]model.Transaction, error)
	ListLeases(ctx context.Context, filter MarketFilter) ([]model.LeaseRecord, error)
}

// ReferenceStore reads area, amenity and project reference tables.
type ReferenceStore interface {
	GetAreaCoordinate(ctx context.Context, area string) (*model.AreaCoordinate, error)
	ListAmenities(ctx context.Context) ([]model.Amenity, error)
	GetProjectPremium(ctx context.Context, name string) (*model.ProjectPremium, error)
	ListProjectsByTier(ctx context.Context, tier, exclude string, limit int) ([]model.ProjectPremium, error)
}

// LocationCache persists computed location premiums.
type LocationCache interface {
	GetLocationPremium(ctx context.Context, key model.CacheKey, maxAge time.Duration) (*model.LocationCacheEntry, error)
	RecordCacheHit(ctx context.Context, key model.CacheKey) error
	UpsertLocationPremium(ctx context.Context, key model.CacheKey, p model.LocationPremium) error
	CacheStats(ctx context.Context, maxAge time.Duration) (*model.CacheStats, error)
	PruneLocationCache(ctx context.Context, maxAge time.Duration) (int, error)
}

// Store is the full persistence interface of the valuation service.
type Store interface {
	TransactionStore
	ReferenceStore
	LocationCache

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
