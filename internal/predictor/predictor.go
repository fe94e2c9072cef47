package predictor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/config"
)

// New selects the stage-predictor variant once at startup.
//
// Mode "model" requires the model service to be healthy and fails otherwise.
// Mode "heuristic" never touches the network. Mode "auto" probes the model
// service once and falls back to the heuristic variant when it is
// unreachable, making the capability visible instead of swallowing per-call
// failures.
func New(cfg *config.PredictorConfig, size int, tables ReferenceTables, logger *logrus.Logger) (StagePredictor, error) {
	switch cfg.Mode {
	case "heuristic":
		selectVariant(VariantHeuristic, "configured", logger)
		return NewHeuristicPredictor(size, tables), nil

	case "model":
		client := NewModelClient(cfg, size, logger)
		if err := probe(client, cfg); err != nil {
			return nil, err
		}
		selectVariant(VariantModel, "configured", logger)
		return withCache(client, cfg), nil

	default: // auto
		client := NewModelClient(cfg, size, logger)
		if err := probe(client, cfg); err != nil {
			logger.WithError(err).Warn("Model service unreachable, using heuristic predictor")
			selectVariant(VariantHeuristic, "model unreachable", logger)
			return NewHeuristicPredictor(size, tables), nil
		}
		selectVariant(VariantModel, "model healthy", logger)
		return withCache(client, cfg), nil
	}
}

func probe(client *ModelClient, cfg *config.PredictorConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	defer cancel()
	return client.Healthy(ctx)
}

func withCache(client *ModelClient, cfg *config.PredictorConfig) StagePredictor {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return NewCachedPredictor(client, ttl)
}

func selectVariant(variant, reason string, logger *logrus.Logger) {
	PredictorVariantSelected.WithLabelValues(VariantModel).Set(0)
	PredictorVariantSelected.WithLabelValues(VariantHeuristic).Set(0)
	PredictorVariantSelected.WithLabelValues(variant).Set(1)
	logger.WithFields(logrus.Fields{
		"variant": variant,
		"reason":  reason,
	}).Info("Stage predictor variant selected")
}
