package store

import (
	"context"
	"time"

	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/resilience"
)

// Policy bounds every store call. Reads run under Retry; writes run once.
// Calls are detached from caller cancellation so an abandoned request still
// finishes or times out on its own.
type Policy struct {
	QueryTimeout  time.Duration // comparable search and market listings
	LookupTimeout time.Duration // reference tables and the cache
	Retry         resilience.Policy
	Observe       func(op string, elapsed time.Duration, err error)
}

// DefaultStorePolicy returns a single-attempt policy with 5s queries and
// 1s lookups.
func DefaultStorePolicy() Policy {
	return Policy{
		QueryTimeout:  5 * time.Second,
		LookupTimeout: time.Second,
		Retry:         resilience.DefaultPolicy(),
	}
}

type policyStore struct {
	next Store
	p    Policy
}

// WithPolicy wraps next so that every call follows p.
func WithPolicy(next Store, p Policy) Store {
	d := DefaultStorePolicy()
	if p.QueryTimeout <= 0 {
		p.QueryTimeout = d.QueryTimeout
	}
	if p.LookupTimeout <= 0 {
		p.LookupTimeout = d.LookupTimeout
	}
	return &policyStore{next: next, p: p}
}

func read[T any](ctx context.Context, s *policyStore, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	retry := s.p.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("store: " + op)
	}
	start := time.Now()
	v, err := resilience.RunVal(context.WithoutCancel(ctx), retry, func(ctx context.Context) (T, error) {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(cctx)
	})
	s.observe(op, start, err)
	return v, err
}

func (s *policyStore) write(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	err := fn(cctx)
	s.observe(op, start, err)
	return err
}

func (s *policyStore) observe(op string, start time.Time, err error) {
	if s.p.Observe != nil {
		s.p.Observe(op, time.Since(start), err)
	}
}

func (s *policyStore) SearchComparables(ctx context.Context, f ComparableFilter) ([]model.Transaction, error) {
	return read(ctx, s, "search_comparables", s.p.QueryTimeout, func(ctx context.Context) ([]model.Transaction, error) {
		return s.next.SearchComparables(ctx, f)
	})
}

func (s *policyStore) ListSales(ctx context.Context, f MarketFilter) ([]model.Transaction, error) {
	return read(ctx, s, "list_sales", s.p.QueryTimeout, func(ctx context.Context) ([]model.Transaction, error) {
		return s.next.ListSales(ctx, f)
	})
}

func (s *policyStore) ListLeases(ctx context.Context, f MarketFilter) ([]model.LeaseRecord, error) {
	return read(ctx, s, "list_leases", s.p.QueryTimeout, func(ctx context.Context) ([]model.LeaseRecord, error) {
		return s.next.ListLeases(ctx, f)
	})
}

func (s *policyStore) GetAreaCoordinate(ctx context.Context, area string) (*model.AreaCoordinate, error) {
	return read(ctx, s, "get_area_coordinate", s.p.LookupTimeout, func(ctx context.Context) (*model.AreaCoordinate, error) {
		return s.next.GetAreaCoordinate(ctx, area)
	})
}

func (s *policyStore) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	return read(ctx, s, "list_amenities", s.p.QueryTimeout, func(ctx context.Context) ([]model.Amenity, error) {
		return s.next.ListAmenities(ctx)
	})
}

func (s *policyStore) GetProjectPremium(ctx context.Context, name string) (*model.ProjectPremium, error) {
	return read(ctx, s, "get_project_premium", s.p.LookupTimeout, func(ctx context.Context) (*model.ProjectPremium, error) {
		return s.next.GetProjectPremium(ctx, name)
	})
}

func (s *policyStore) ListProjectsByTier(ctx context.Context, tier, exclude string, limit int) ([]model.ProjectPremium, error) {
	return read(ctx, s, "list_projects_by_tier", s.p.LookupTimeout, func(ctx context.Context) ([]model.ProjectPremium, error) {
		return s.next.ListProjectsByTier(ctx, tier, exclude, limit)
	})
}

func (s *policyStore) GetLocationPremium(ctx context.Context, key model.CacheKey, maxAge time.Duration) (*model.LocationCacheEntry, error) {
	return read(ctx, s, "get_location_premium", s.p.LookupTimeout, func(ctx context.Context) (*model.LocationCacheEntry, error) {
		return s.next.GetLocationPremium(ctx, key, maxAge)
	})
}

func (s *policyStore) RecordCacheHit(ctx context.Context, key model.CacheKey) error {
	return s.write(ctx, "record_cache_hit", s.p.LookupTimeout, func(ctx context.Context) error {
		return s.next.RecordCacheHit(ctx, key)
	})
}

func (s *policyStore) UpsertLocationPremium(ctx context.Context, key model.CacheKey, p model.LocationPremium) error {
	return s.write(ctx, "upsert_location_premium", s.p.LookupTimeout, func(ctx context.Context) error {
		return s.next.UpsertLocationPremium(ctx, key, p)
	})
}

func (s *policyStore) CacheStats(ctx context.Context, maxAge time.Duration) (*model.CacheStats, error) {
	return read(ctx, s, "cache_stats", s.p.QueryTimeout, func(ctx context.Context) (*model.CacheStats, error) {
		return s.next.CacheStats(ctx, maxAge)
	})
}

func (s *policyStore) PruneLocationCache(ctx context.Context, maxAge time.Duration) (int, error) {
	var n int
	err := s.write(ctx, "prune_location_cache", s.p.QueryTimeout, func(ctx context.Context) error {
		var err error
		n, err = s.next.PruneLocationCache(ctx, maxAge)
		return err
	})
	return n, err
}

func (s *policyStore) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

func (s *policyStore) Migrate(ctx context.Context) error { return s.next.Migrate(ctx) }

func (s *policyStore) Close() error { return s.next.Close() }
