// Package predictor provides the HTTP client for the model inference service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/trifecta-engine/internal/config"
)

// ModelClient calls the trained stage-predictor model service over HTTP.
// All candidates for one partial ordering are batched into a single call.
type ModelClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	size    int
	logger  *logrus.Logger
}

// NewModelClient creates a model service client from configuration.
func NewModelClient(cfg *config.PredictorConfig, size int, logger *logrus.Logger) *ModelClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.Logger = nil

	return &ModelClient{
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		size:    size,
		logger:  logger,
	}
}

// Variant returns the predictor variant name.
func (c *ModelClient) Variant() string { return VariantModel }

// predictRequest is the JSON payload for one batched stage prediction.
type predictRequest struct {
	RaceID     string      `json:"race_id"`
	Stage      int         `json:"stage"`
	Placed     []int       `json:"placed"`     // 1-indexed entry numbers
	Candidates []int       `json:"candidates"` // 1-indexed entry numbers
	Rows       [][]float64 `json:"rows"`
}

// predictResponse carries one probability per requested candidate.
type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  string    `json:"model_version"`
}

// Predict batches all unplaced candidates for the partial ordering into one
// inference call and expands the response to a full-length vector with zeros
// at the placed indices.
func (c *ModelClient) Predict(ctx context.Context, raceID uuid.UUID, placed []int, rows [][]float64) ([]float64, error) {
	batch := BuildBatch(placed, rows)

	start := time.Now()
	defer func() {
		StagePredictionLatency.WithLabelValues(strconv.Itoa(batch.Stage)).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqBody := predictRequest{
		RaceID:     raceID.String(),
		Stage:      batch.Stage,
		Placed:     toEntryNumbers(batch.Placed),
		Candidates: toEntryNumbers(batch.Candidates),
		Rows:       batch.Rows,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ModelErrorsTotal.WithLabelValues("predict", "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		ModelErrorsTotal.WithLabelValues("predict", "http_error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidPrediction, resp.StatusCode, string(body))
	}

	var predResp predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		ModelErrorsTotal.WithLabelValues("predict", "decode").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	if len(predResp.Probabilities) != len(batch.Candidates) {
		ModelErrorsTotal.WithLabelValues("predict", "batch_mismatch").Inc()
		return nil, fmt.Errorf("%w: got %d probabilities for %d candidates",
			ErrBatchMismatch, len(predResp.Probabilities), len(batch.Candidates))
	}

	vector := make([]float64, c.size)
	for i, idx := range batch.Candidates {
		if idx >= 0 && idx < c.size {
			vector[idx] = predResp.Probabilities[i]
		}
	}

	StagePredictionsTotal.WithLabelValues(VariantModel, "false").Inc()
	c.logger.WithFields(logrus.Fields{
		"race_id":       raceID,
		"stage":         batch.Stage,
		"candidates":    len(batch.Candidates),
		"model_version": predResp.ModelVersion,
	}).Debug("Batched stage prediction completed")

	return vector, nil
}

// Healthy probes the model service health endpoint.
func (c *ModelClient) Healthy(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}

// toEntryNumbers converts internal indices to 1-indexed entry numbers.
func toEntryNumbers(indices []int) []int {
	numbers := make([]int, len(indices))
	for i, idx := range indices {
		numbers[i] = idx + 1
	}
	return numbers
}
