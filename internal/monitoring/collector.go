package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/model"
)

// CacheStatter reports location cache occupancy.
type CacheStatter interface {
	CacheStats(ctx context.Context, maxAge time.Duration) (*model.CacheStats, error)
}

// Snapshot is the activity since the previous collection plus the current
// cache occupancy.
type Snapshot struct {
	Requests        int64     `json:"requests"`
	Failures        int64     `json:"failures"`
	FailureRate     float64   `json:"failure_rate"`
	ModelCalls      int64     `json:"model_calls"`
	ModelFailures   int64     `json:"model_failures"`
	ModelFailRate   float64   `json:"model_fail_rate"`
	StoreCalls      int64     `json:"store_calls"`
	StoreErrors     int64     `json:"store_errors"`
	CacheEntries    int       `json:"cache_entries"`
	CacheFresh      int       `json:"cache_fresh_entries"`
	CacheHits       int       `json:"cache_hits"`
	WindowStartedAt time.Time `json:"window_started_at"`
	CollectedAt     time.Time `json:"collected_at"`
}

// Collector diffs Metrics totals between calls and reads cache stats.
type Collector struct {
	metrics *Metrics
	cache   CacheStatter
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	prev   Totals
	prevAt time.Time
}

// NewCollector creates a Collector. cache may be nil.
func NewCollector(m *Metrics, cache CacheStatter, ttl time.Duration) *Collector {
	return &Collector{metrics: m, cache: cache, ttl: ttl, now: time.Now, prevAt: time.Now().UTC()}
}

// Collect returns the activity since the last call.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	cur := c.metrics.Totals()
	snap := &Snapshot{
		Requests:        cur.Requests - c.prev.Requests,
		Failures:        cur.Failures - c.prev.Failures,
		ModelCalls:      cur.ModelCalls - c.prev.ModelCalls,
		ModelFailures:   cur.ModelFailures - c.prev.ModelFailures,
		StoreCalls:      cur.StoreCalls - c.prev.StoreCalls,
		StoreErrors:     cur.StoreErrors - c.prev.StoreErrors,
		WindowStartedAt: c.prevAt,
		CollectedAt:     now,
	}
	if snap.Requests > 0 {
		snap.FailureRate = float64(snap.Failures) / float64(snap.Requests)
	}
	if snap.ModelCalls > 0 {
		snap.ModelFailRate = float64(snap.ModelFailures) / float64(snap.ModelCalls)
	}

	if c.cache != nil {
		stats, err := c.cache.CacheStats(ctx, c.ttl)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: cache stats")
		}
		snap.CacheEntries = stats.Entries
		snap.CacheFresh = stats.FreshEntries
		snap.CacheHits = stats.TotalHits
		c.metrics.setCacheEntries(stats.Entries, stats.FreshEntries)
	}

	c.prev = cur
	c.prevAt = now
	return snap, nil
}
