// Package predictor provides the stage-predictor variants consumed by the
// probability chain.
package predictor

import "errors"

var (
	// ErrModelUnavailable indicates the model service is unreachable
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrInvalidPrediction indicates the prediction response is invalid
	ErrInvalidPrediction = errors.New("invalid prediction response")

	// ErrBatchMismatch indicates the response does not align with the request batch
	ErrBatchMismatch = errors.New("prediction response does not match batch")
)
