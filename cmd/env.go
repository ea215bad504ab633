package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/comparable"
	"github.com/sells-group/avm-cli/internal/config"
	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/monitoring"
	"github.com/sells-group/avm-cli/internal/premium"
	"github.com/sells-group/avm-cli/internal/resilience"
	"github.com/sells-group/avm-cli/internal/scorer"
	"github.com/sells-group/avm-cli/internal/store"
	"github.com/sells-group/avm-cli/internal/valuation"
	"github.com/sells-group/avm-cli/pkg/predictor"
)

// avmEnv holds the store, metrics and service shared by the commands.
type avmEnv struct {
	Store    store.Store
	Service  *valuation.Service
	Metrics  *monitoring.Metrics
	Registry *prometheus.Registry
}

// Close releases the store.
func (e *avmEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "avm.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// initEnv opens and migrates the store and builds the valuation service.
// Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*avmEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := monitoring.NewMetrics(reg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc, wrapped, err := buildService(ctx, cfg, st, metrics)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &avmEnv{Store: wrapped, Service: svc, Metrics: metrics, Registry: reg}, nil
}

// buildService wires the valuation service over st. The returned store is st
// behind the configured timeouts, retries and latency metrics.
func buildService(ctx context.Context, c *config.Config, st store.Store, m *monitoring.Metrics) (*valuation.Service, store.Store, error) {
	retry := resilience.PolicyFromConfig(
		c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs, c.Retry.Multiplier,
	)
	retry.OnRetry = resilience.RetryLogger("store")
	wrapped := store.WithPolicy(st, store.Policy{
		QueryTimeout:  c.Valuation.QueryTimeout(),
		LookupTimeout: c.Valuation.LookupTimeout(),
		Retry:         retry,
		Observe:       m.ObserveStore,
	})

	var locOpts []premium.LocationOption
	if c.Cache.Enabled {
		locOpts = append(locOpts, premium.WithCache(wrapped, c.Cache.TTL()))
	}
	if c.Geo.AmenityBackfill {
		idx, err := premium.LoadAmenityIndex(ctx, wrapped)
		if err != nil {
			return nil, nil, err
		}
		locOpts = append(locOpts, premium.WithAmenities(idx))
	}

	views := premium.DefaultViewRules()
	if c.ViewsFile != "" {
		v, err := premium.LoadViewRules(c.ViewsFile)
		if err != nil {
			return nil, nil, err
		}
		views = v
	}

	svc, err := valuation.New(valuation.Deps{
		Searcher:  comparable.NewSearcher(wrapped, c.Valuation.Config),
		Estimator: buildEstimator(c.Predictor, m),
		Location:  premium.NewLocationCalculator(wrapped, locOpts...),
		Projects:  premium.NewProjectLookup(wrapped),
		Views:     views,
		Scorer:    scorer.New(wrapped, c.Market),
	}, valuation.WithObserver(m))
	if err != nil {
		return nil, nil, err
	}
	return svc, wrapped, nil
}

// buildEstimator returns a rule-based estimator when no predictor URL is set.
func buildEstimator(c config.PredictorConfig, m *monitoring.Metrics) *estimate.Estimator {
	opts := []estimate.Option{estimate.WithObserver(m.ObserveModel)}
	if c.URL == "" {
		return estimate.NewEstimator(nil, opts...)
	}

	timeout := c.Timeout()
	client := predictor.NewClient(c.URL,
		predictor.WithAPIKey(c.APIKey),
		predictor.WithRateLimit(c.RateLimit, c.Burst),
		predictor.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	breaker := resilience.NewBreaker(resilience.BreakerFromConfig(c.CircuitThreshold, c.CircuitResetSecs))
	opts = append(opts, estimate.WithBreaker(breaker))
	if timeout > 0 {
		opts = append(opts, estimate.WithTimeout(timeout))
	}
	return estimate.NewEstimator(client, opts...)
}
