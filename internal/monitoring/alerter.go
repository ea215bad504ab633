package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/avm-cli/internal/config"
)

const defaultMinRequests = 5

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertValuationFailureRate AlertType = "valuation_failure_rate"
	AlertPredictorFailureRate AlertType = "predictor_failure_rate"
	AlertStoreErrors          AlertType = "store_errors"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()
	window := snap.CollectedAt.Sub(snap.WindowStartedAt).Round(time.Second)

	minRequests := int64(a.cfg.MinRequests)
	if minRequests <= 0 {
		minRequests = defaultMinRequests
	}

	if snap.Requests >= minRequests && a.cfg.FailureRateThreshold > 0 &&
		snap.FailureRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertValuationFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Valuation failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d requests in last %s)",
				snap.FailureRate*100, a.cfg.FailureRateThreshold*100,
				snap.Failures, snap.Requests, window,
			),
			Details: map[string]any{
				"failure_rate": snap.FailureRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.Failures,
				"requests":     snap.Requests,
			},
			Timestamp: now,
		})
	}

	// The estimator falls back to rule-based pricing, so this is a warning.
	if snap.ModelCalls >= minRequests && a.cfg.ModelFailureThreshold > 0 &&
		snap.ModelFailRate > a.cfg.ModelFailureThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertPredictorFailureRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Predictor failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d calls in last %s)",
				snap.ModelFailRate*100, a.cfg.ModelFailureThreshold*100,
				snap.ModelFailures, snap.ModelCalls, window,
			),
			Details: map[string]any{
				"failure_rate": snap.ModelFailRate,
				"threshold":    a.cfg.ModelFailureThreshold,
				"failed":       snap.ModelFailures,
				"calls":        snap.ModelCalls,
			},
			Timestamp: now,
		})
	}

	if snap.StoreErrors > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertStoreErrors,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d store call(s) failed in last %s",
				snap.StoreErrors, window,
			),
			Details: map[string]any{
				"errors": snap.StoreErrors,
				"calls":  snap.StoreCalls,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
