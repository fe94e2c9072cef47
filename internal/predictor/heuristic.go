package predictor

import (
	"context"

	"github.com/google/uuid"
)

// ReferenceTables carries immutable prior data used by the heuristic variant.
// Tables are passed in read-only at construction; the predictor never mutates
// them, so a single instance serves concurrent predictions.
type ReferenceTables struct {
	// GateBias holds a multiplicative prior per gate (internal index).
	// Empty means no bias.
	GateBias []float64
}

// HeuristicPredictor scores entrants from their feature strength alone. It is
// the fallback variant used when no trained model service is available.
//
// The same strengths serve every stage: the probability chain forces placed
// entrants to zero and renormalizes, which turns the raw strengths into the
// conditional distribution over the remaining field.
type HeuristicPredictor struct {
	size   int
	tables ReferenceTables
}

// NewHeuristicPredictor creates a heuristic predictor for the given race size.
func NewHeuristicPredictor(size int, tables ReferenceTables) *HeuristicPredictor {
	return &HeuristicPredictor{size: size, tables: tables}
}

// Variant returns the predictor variant name.
func (h *HeuristicPredictor) Variant() string { return VariantHeuristic }

// Predict returns normalized feature strengths for every entrant.
func (h *HeuristicPredictor) Predict(ctx context.Context, raceID uuid.UUID, placed []int, rows [][]float64) ([]float64, error) {
	_ = ctx
	_ = raceID
	_ = placed

	strengths := make([]float64, h.size)
	for i := 0; i < h.size && i < len(rows); i++ {
		strengths[i] = rowStrength(rows[i]) * h.gateBias(i)
	}

	total := 0.0
	for _, s := range strengths {
		total += s
	}
	if total > 0 {
		for i := range strengths {
			strengths[i] /= total
		}
	}
	// An all-zero vector is returned as-is; the chain substitutes uniform.
	return strengths, nil
}

func (h *HeuristicPredictor) gateBias(idx int) float64 {
	if idx < len(h.tables.GateBias) && h.tables.GateBias[idx] > 0 {
		return h.tables.GateBias[idx]
	}
	return 1.0
}
