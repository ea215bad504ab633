// Package monitoring exports prometheus metrics for the valuation service
// and raises webhook alerts when failure rates cross their thresholds.
package monitoring

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/valuation"
)

const namespace = "avm"

// Totals are the running counts the collector diffs between checks.
type Totals struct {
	Requests      int64
	Failures      int64
	ModelCalls    int64
	ModelFailures int64
	StoreCalls    int64
	StoreErrors   int64
}

// Metrics records request, cache, predictor and store activity.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheStatus  *prometheus.CounterVec
	modelStatus  *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	cacheEntries *prometheus.GaugeVec

	requestsTotal atomic.Int64
	failuresTotal atomic.Int64
	modelCalls    atomic.Int64
	modelFailures atomic.Int64
	storeCalls    atomic.Int64
	storeFailures atomic.Int64
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Valuation service requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Valuation service request latency.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		cacheStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "location_cache",
			Name:      "lookups_total",
			Help:      "Location premium cache lookups by status.",
		}, []string{"status"}),
		modelStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "predictor",
			Name:      "estimates_total",
			Help:      "Estimates by predictor status.",
		}, []string{"status"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "call_duration_seconds",
			Help:      "Store call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Failed store calls by operation.",
		}, []string{"op"}),
		cacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "location_cache",
			Name:      "entries",
			Help:      "Location cache rows at the last collection.",
		}, []string{"state"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.requests, m.duration, m.cacheStatus, m.modelStatus,
		m.storeLatency, m.storeErrors, m.cacheEntries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, eris.Wrap(err, "monitoring: register collector")
		}
	}
	return m, nil
}

// ObserveRequest implements valuation.Observer.
func (m *Metrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.requestsTotal.Add(1)
	if outcome == valuation.OutcomeError {
		m.failuresTotal.Add(1)
	}
}

// ObserveLocationCache implements valuation.Observer.
func (m *Metrics) ObserveLocationCache(status string) {
	m.cacheStatus.WithLabelValues(status).Inc()
}

// ObserveModel counts one estimate by predictor status. It matches
// estimate.WithObserver.
func (m *Metrics) ObserveModel(status string) {
	m.modelStatus.WithLabelValues(status).Inc()
	if status == estimate.ModelDisabled {
		return
	}
	m.modelCalls.Add(1)
	if status == estimate.ModelUnavailable || status == estimate.ModelError {
		m.modelFailures.Add(1)
	}
}

// ObserveStore records one store call. It matches store.Policy.Observe.
func (m *Metrics) ObserveStore(op string, elapsed time.Duration, err error) {
	m.storeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	m.storeCalls.Add(1)
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
		m.storeFailures.Add(1)
	}
}

// Totals returns the running counts.
func (m *Metrics) Totals() Totals {
	return Totals{
		Requests:      m.requestsTotal.Load(),
		Failures:      m.failuresTotal.Load(),
		ModelCalls:    m.modelCalls.Load(),
		ModelFailures: m.modelFailures.Load(),
		StoreCalls:    m.storeCalls.Load(),
		StoreErrors:   m.storeFailures.Load(),
	}
}

func (m *Metrics) setCacheEntries(total, fresh int) {
	m.cacheEntries.WithLabelValues("total").Set(float64(total))
	m.cacheEntries.WithLabelValues("fresh").Set(float64(fresh))
}

var _ valuation.Observer = (*Metrics)(nil)
