// Package logger provides prediction-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction runs.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogComposition logs the outcome of one permutation-distribution composition.
func (pl *PredictionLogger) LogComposition(raceID string, permutations int, totalMass float64, fallbacks int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"race_id":      raceID,
		"permutations": permutations,
		"total_mass":   totalMass,
		"fallbacks":    fallbacks,
		"duration_ms":  durationMs,
	}).Info("Permutation distribution composed")
}

// LogStageFallback logs a uniform-fallback substitution at one stage.
func (pl *PredictionLogger) LogStageFallback(raceID string, stage int, placed []int) {
	pl.WithFields(logrus.Fields{
		"race_id": raceID,
		"stage":   stage,
		"placed":  placed,
	}).Warn("Degenerate conditional vector, substituted uniform fallback")
}

// LogPlan logs the final betting plan.
func (pl *PredictionLogger) LogPlan(raceID string, market string, bets int, totalStake, expectedReturn, expectedROI float64) {
	pl.WithFields(logrus.Fields{
		"race_id":         raceID,
		"market":          market,
		"bets":            bets,
		"total_stake":     totalStake,
		"expected_return": expectedReturn,
		"expected_roi":    expectedROI,
	}).Info("Betting plan generated")
}

// LogPredictorSelection logs which stage-predictor variant was chosen at startup.
func (pl *PredictionLogger) LogPredictorSelection(variant string, reason string) {
	pl.WithFields(logrus.Fields{
		"variant": variant,
		"reason":  reason,
	}).Info("Stage predictor variant selected")
}
