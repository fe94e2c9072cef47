package predictor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicPredictNormalizesStrengths(t *testing.T) {
	h := NewHeuristicPredictor(6, ReferenceTables{})
	vector, err := h.Predict(context.Background(), uuid.New(), nil, sampleRows())
	require.NoError(t, err)
	require.Len(t, vector, 6)

	total := 0.0
	for i, v := range vector {
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// Stronger features yield higher probability.
	for i := 1; i < len(vector); i++ {
		assert.Greater(t, vector[i-1], vector[i])
	}
}

func TestHeuristicPredictAllZeroFeatures(t *testing.T) {
	h := NewHeuristicPredictor(6, ReferenceTables{})
	rows := make([][]float64, 6)
	for i := range rows {
		rows[i] = []float64{0, 0}
	}

	vector, err := h.Predict(context.Background(), uuid.New(), nil, rows)
	require.NoError(t, err)
	// All-zero output is legal; the chain substitutes a uniform fallback.
	for _, v := range vector {
		assert.Zero(t, v)
	}
}

func TestHeuristicGateBias(t *testing.T) {
	rows := [][]float64{{0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}}
	bias := []float64{2.0, 1.0, 1.0, 1.0, 1.0, 1.0}
	h := NewHeuristicPredictor(6, ReferenceTables{GateBias: bias})

	vector, err := h.Predict(context.Background(), uuid.New(), nil, rows)
	require.NoError(t, err)
	// Gate 1 carries twice the prior of every other gate.
	assert.InDelta(t, 2.0/7.0, vector[0], 1e-9)
	assert.InDelta(t, 1.0/7.0, vector[1], 1e-9)
}

func TestHeuristicVariant(t *testing.T) {
	assert.Equal(t, VariantHeuristic, NewHeuristicPredictor(6, ReferenceTables{}).Variant())
}
