// Package predictor is an HTTP client for the regression model that serves
// price predictions.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/avm-cli/internal/resilience"
)

// ErrUnavailable signals that no model is loaded or the service refused the
// request. Callers fall back to rule-based estimation.
var ErrUnavailable = eris.New("predictor: unavailable")

// Client predicts a sale price from a property feature record.
type Client interface {
	Predict(ctx context.Context, f Features) (*Prediction, error)
}

// Features is the flat record the model was trained on.
type Features struct {
	ActualArea      float64 `json:"actual_area"`
	Area            string  `json:"area_en"`
	PropertyType    string  `json:"prop_type_en"`
	Rooms           string  `json:"rooms_en"`
	OffPlan         string  `json:"is_offplan_en"`
	FreeHold        string  `json:"is_free_hold_en"`
	Project         string  `json:"project_en"`
	Group           string  `json:"group_en"`
	Procedure       string  `json:"procedure_en"`
	Parking         string  `json:"parking"`
	NearestMetro    string  `json:"nearest_metro_en"`
	NearestMall     string  `json:"nearest_mall_en"`
	NearestLandmark string  `json:"nearest_landmark_en"`
	Usage           string  `json:"usage_en"`
	SubType         string  `json:"prop_sb_type_en"`
	ProcedureArea   float64 `json:"procedure_area"`
	TotalBuyer      int     `json:"total_buyer"`
	TotalSeller     int     `json:"total_seller"`
}

// Prediction is the model output. Confidence is in [0, 1].
type Prediction struct {
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence"`
	ModelVersion   string  `json:"model_version,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a predictor client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Predict(ctx context.Context, f Features) (*Prediction, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "predictor: rate limit wait")
		}
	}

	body, err := json.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "predictor: marshal features")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "predictor: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "predictor: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "predictor: read response")
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("predictor: unexpected status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("predictor: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var p Prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, eris.Wrap(err, "predictor: unmarshal response")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate rejects a non-positive or non-finite price and a confidence
// outside [0,1].
func (p Prediction) Validate() error {
	if math.IsNaN(p.PredictedPrice) || math.IsInf(p.PredictedPrice, 0) || p.PredictedPrice <= 0 {
		return eris.Errorf("predictor: invalid predicted price %v", p.PredictedPrice)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return eris.Errorf("predictor: confidence %v outside [0,1]", p.Confidence)
	}
	return nil
}
