package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sells-group/avm-cli/internal/config"
	"github.com/sells-group/avm-cli/internal/valuation"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	m := newTestMetrics(t)
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, FailureRateThreshold: 0.10}
	checker := NewChecker(NewCollector(m, nil, time.Hour), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	m := newTestMetrics(t)
	checker := NewChecker(NewCollector(m, nil, time.Hour), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})
	assert.Equal(t, 5*time.Minute, checker.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_Check(t *testing.T) {
	m := newTestMetrics(t)
	cfg := config.MonitoringConfig{FailureRateThreshold: 0.10}
	checker := NewChecker(NewCollector(m, nil, time.Hour), NewAlerter(cfg), cfg)

	for range 10 {
		m.ObserveRequest("valuate", valuation.OutcomeError, time.Millisecond)
	}
	assert.Equal(t, 1, checker.check(context.Background(), zap.NewNop()))

	// The window resets after each check.
	assert.Equal(t, 0, checker.check(context.Background(), zap.NewNop()))
}
