package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/resilience"
)

func TestPredict(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantErr         string
		wantUnavailable bool
		wantTransient   bool
		wantPrice       float64
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      `{"predicted_price": 1250000, "confidence": 0.82, "model_version": "v3"}`,
			wantPrice: 1_250_000,
		},
		{
			name:            "no_model_loaded",
			status:          http.StatusServiceUnavailable,
			body:            `{"error": "model not loaded"}`,
			wantErr:         "unavailable",
			wantUnavailable: true,
		},
		{
			name:          "gateway_timeout",
			status:        http.StatusGatewayTimeout,
			body:          `timeout`,
			wantErr:       "unexpected status 504",
			wantTransient: true,
		},
		{
			name:    "bad_request",
			status:  http.StatusBadRequest,
			body:    `{"error": "missing actual_area"}`,
			wantErr: "unexpected status 400",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid`,
			wantErr: "unmarshal response",
		},
		{
			name:    "confidence_out_of_range",
			status:  http.StatusOK,
			body:    `{"predicted_price": 900000, "confidence": 1.4}`,
			wantErr: "outside [0,1]",
		},
		{
			name:    "non_positive_price",
			status:  http.StatusOK,
			body:    `{"predicted_price": 0, "confidence": 0.5}`,
			wantErr: "invalid predicted price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/predict", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				raw, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				var f Features
				assert.NoError(t, json.Unmarshal(raw, &f))
				assert.Equal(t, "Dubai Marina", f.Area)
				assert.Equal(t, 1, f.TotalBuyer)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, WithAPIKey("secret"))
			p, err := c.Predict(context.Background(), Features{Area: "Dubai Marina", ActualArea: 100, TotalBuyer: 1, TotalSeller: 1})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantUnavailable, errors.Is(err, ErrUnavailable))
				assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantPrice, p.PredictedPrice, 0.01)
			assert.Equal(t, "v3", p.ModelVersion)
		})
	}
}

func TestPredict_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Predict(context.Background(), Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestPredict_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"predicted_price": 1, "confidence": 0.1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Predict(ctx, Features{})
	require.NoError(t, err)

	_, err = c.Predict(ctx, Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPredict_CustomHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"predicted_price": 1, "confidence": 0.1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 10 * time.Millisecond}))
	_, err := c.Predict(context.Background(), Features{})
	require.Error(t, err)
}
