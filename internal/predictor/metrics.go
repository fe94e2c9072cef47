// Package predictor provides Prometheus metrics for stage predictions.
package predictor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StagePredictionsTotal tracks stage predictions by variant and cache outcome
	StagePredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_predictions_total",
			Help: "Total number of stage predictions made",
		},
		[]string{"variant", "cache_hit"},
	)

	// StagePredictionLatency tracks stage prediction latency
	StagePredictionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stage_prediction_latency_seconds",
			Help:    "Stage prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// ModelErrorsTotal tracks model service errors
	ModelErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_errors_total",
			Help: "Total number of model service errors",
		},
		[]string{"operation", "error_type"},
	)

	// PredictorVariantSelected reports the variant chosen at startup
	PredictorVariantSelected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "predictor_variant_selected",
			Help: "Predictor variant selected at startup (1 for the active variant)",
		},
		[]string{"variant"},
	)
)
