package predictor

// Batch holds the conditioned candidate rows for one partial ordering. All
// candidates for the same conditioning context travel in a single inference
// call rather than one call per candidate.
type Batch struct {
	Stage      int         // 1, 2 or 3: the position being predicted
	Placed     []int       // internal indices already placed, in finishing order
	Candidates []int       // internal indices of unplaced entrants, ascending
	Rows       [][]float64 // one conditioned feature row per candidate
}

// BuildBatch constructs the stage-conditioned batch for a partial ordering.
// Each candidate row is the entrant's raw features extended with conditioning
// features: a placed-flag per gate and the mean strength of the already
// placed entrants.
func BuildBatch(placed []int, rows [][]float64) *Batch {
	n := len(rows)
	batch := &Batch{
		Stage:  len(placed) + 1,
		Placed: append([]int(nil), placed...),
	}

	placedSet := make(map[int]bool, len(placed))
	for _, idx := range placed {
		placedSet[idx] = true
	}
	placedStrength := meanPlacedStrength(placed, rows)

	for idx := 0; idx < n; idx++ {
		if placedSet[idx] {
			continue
		}
		batch.Candidates = append(batch.Candidates, idx)
		batch.Rows = append(batch.Rows, conditionRow(rows[idx], placed, placedStrength, n))
	}
	return batch
}

// conditionRow appends the conditioning features to a raw feature vector.
func conditionRow(features []float64, placed []int, placedStrength float64, n int) []float64 {
	row := make([]float64, 0, len(features)+n+1)
	row = append(row, features...)

	flags := make([]float64, n)
	for _, idx := range placed {
		if idx >= 0 && idx < n {
			flags[idx] = 1
		}
	}
	row = append(row, flags...)
	row = append(row, placedStrength)
	return row
}

// meanPlacedStrength averages the row strength of the placed entrants.
// It is zero for the stage-1 batch.
func meanPlacedStrength(placed []int, rows [][]float64) float64 {
	if len(placed) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, idx := range placed {
		if idx >= 0 && idx < len(rows) {
			total += rowStrength(rows[idx])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// rowStrength collapses a feature vector to a single non-negative score.
func rowStrength(features []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	total := 0.0
	for _, f := range features {
		total += f
	}
	mean := total / float64(len(features))
	if mean < 0 {
		return 0
	}
	return mean
}
