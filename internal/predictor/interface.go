package predictor

import (
	"context"

	"github.com/google/uuid"
)

// Predictor variants
const (
	VariantModel     = "model"
	VariantHeuristic = "heuristic"
)

// StagePredictor estimates a conditional probability vector for the next
// finishing position given the already placed entrants.
//
// placed holds 0, 1 or 2 internal indices; rows holds one feature vector per
// entrant ordered by internal index. The returned vector has one value per
// entrant, each >= 0. Values at placed indices are ignored by the caller, and
// an all-zero result is repaired by the probability chain, not here.
// Implementations are safe for concurrent use; they hold no mutable state.
type StagePredictor interface {
	Predict(ctx context.Context, raceID uuid.UUID, placed []int, rows [][]float64) ([]float64, error)
	Variant() string
}
