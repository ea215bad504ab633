package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/estimate"
	"github.com/sells-group/avm-cli/internal/valuation"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.ObserveRequest("valuate", valuation.OutcomeOK, time.Millisecond)
	assert.Equal(t, int64(1), m.Totals().Requests)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveRequest("valuate", valuation.OutcomeOK, 20*time.Millisecond)
	m.ObserveRequest("valuate", valuation.OutcomeNoData, 5*time.Millisecond)
	m.ObserveRequest("flip", valuation.OutcomeError, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("valuate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("valuate", "no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("flip", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	tot := m.Totals()
	assert.Equal(t, int64(3), tot.Requests)
	assert.Equal(t, int64(1), tot.Failures)
}

func TestMetrics_ObserveModel(t *testing.T) {
	m := newTestMetrics(t)
	for _, s := range []string{
		estimate.ModelOK, estimate.ModelDisabled, estimate.ModelUnavailable,
		estimate.ModelError, estimate.ModelOK,
	} {
		m.ObserveModel(s)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modelStatus.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelStatus.WithLabelValues("disabled")))

	tot := m.Totals()
	assert.Equal(t, int64(4), tot.ModelCalls)
	assert.Equal(t, int64(2), tot.ModelFailures)
}

func TestMetrics_ObserveStoreAndCache(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveStore("search_comparables", 30*time.Millisecond, nil)
	m.ObserveStore("get_area_coordinate", time.Millisecond, errors.New("timeout"))
	m.ObserveLocationCache("HIT")
	m.ObserveLocationCache("HIT")
	m.ObserveLocationCache("MISS")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeErrors.WithLabelValues("get_area_coordinate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheStatus.WithLabelValues("HIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheStatus.WithLabelValues("MISS")))

	tot := m.Totals()
	assert.Equal(t, int64(2), tot.StoreCalls)
	assert.Equal(t, int64(1), tot.StoreErrors)
}
