package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"safeswipe/internal/config"
)

var (
	// ErrModelLoading is returned when the hosted model is still being loaded
	// and all retry budget has been spent.
	ErrModelLoading = errors.New("model is still loading")
	// ErrRateLimited is returned on HTTP 429 from the inference endpoint.
	ErrRateLimited = errors.New("inference endpoint rate limited")
)

// maxLoadWait caps how long a single retry waits on the endpoint's
// estimated_time hint before giving up.
const maxLoadWait = 20 * time.Second

// HFClient calls a Hugging Face serverless inference endpoint for
// image classification. The endpoint accepts raw image bytes and responds
// with a JSON array of {label, score} pairs. A cold model answers 503 with
// an estimated_time hint; Classify retries within that budget.
type HFClient struct {
	baseURL    string
	modelID    string
	token      string
	maxRetries int
	client     *http.Client
}

// NewHFClient builds a client for the configured model. Outbound requests
// carry trace context via the otelhttp transport.
func NewHFClient(cfg config.DetectorConfig) *HFClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HFClient{
		baseURL:    cfg.BaseURL,
		modelID:    cfg.ModelID,
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

var _ Detector = (*HFClient)(nil)

// ModelID reports the bound model identifier.
func (c *HFClient) ModelID() string {
	return c.modelID
}

func (c *HFClient) endpoint() string {
	return c.baseURL + "/models/" + c.modelID
}

// Classify posts the image to the model endpoint and decodes its predictions.
func (c *HFClient) Classify(ctx context.Context, imageData []byte) ([]Prediction, error) {
	for attempt := 0; ; attempt++ {
		preds, wait, err := c.classifyOnce(ctx, imageData)
		if err == nil {
			return preds, nil
		}
		if wait <= 0 || attempt >= c.maxRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// classifyOnce performs a single inference call. A positive wait duration
// signals a retryable model-loading response.
func (c *HFClient) classifyOnce(ctx context.Context, imageData []byte) ([]Prediction, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(imageData))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var preds []Prediction
		if err := json.NewDecoder(resp.Body).Decode(&preds); err != nil {
			return nil, 0, fmt.Errorf("decode response: %w", err)
		}
		return preds, 0, nil

	case http.StatusServiceUnavailable:
		// Cold model: the endpoint hints how long the load will take.
		var loading struct {
			Error         string  `json:"error"`
			EstimatedTime float64 `json:"estimated_time"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&loading)
		wait := time.Duration(loading.EstimatedTime * float64(time.Second))
		if wait <= 0 {
			wait = 2 * time.Second
		}
		if wait > maxLoadWait {
			wait = maxLoadWait
		}
		return nil, wait, ErrModelLoading

	case http.StatusTooManyRequests:
		return nil, 0, ErrRateLimited

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

// CheckHealth verifies the inference endpoint is reachable. Any HTTP answer
// below 500, including 405 for the bodyless GET, counts as reachable.
func (c *HFClient) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("model %q not found at inference endpoint", c.modelID)
	}
	if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("inference endpoint unhealthy: %d", resp.StatusCode)
	}
	return nil
}
