// Package chain composes stage-conditional probability vectors into a joint
// distribution over finishing-order permutations.
package chain

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/models"
)

// SecondFunc returns the stage-2 conditional vector given the winner index.
type SecondFunc func(first int) ([]float64, error)

// ThirdFunc returns the stage-3 conditional vector given the top-two indices.
type ThirdFunc func(first, second int) ([]float64, error)

// Result holds a composed permutation distribution together with composition
// diagnostics.
type Result struct {
	Distribution models.PermutationProbability
	// Fallbacks counts the uniform substitutions applied to degenerate
	// stage outputs during this composition.
	Fallbacks int
}

// Composer builds the full permutation distribution for a fixed race size.
type Composer struct {
	size   int
	logger *logrus.Logger
}

// NewComposer creates a composer for races of the given entrant count.
func NewComposer(size int, logger *logrus.Logger) *Composer {
	return &Composer{size: size, logger: logger}
}

// Size returns the expected entrant count.
func (c *Composer) Size() int {
	return c.size
}

// Compose builds the joint distribution over ordered (1st, 2nd, 3rd) triples.
//
// The stage-1 vector is sanitized and normalized, with a uniform substitution
// when it carries no mass. Each stage-2 and stage-3 vector has the already
// placed indices forced to zero before normalization, with the same uniform
// fallback. The finished distribution is renormalized so its grand total is
// exactly 1, absorbing floating-point drift from upstream stages.
//
// Degenerate stage outputs never produce an error; only a vector of the wrong
// length does.
func (c *Composer) Compose(firstProbs []float64, secondFn SecondFunc, thirdFn ThirdFunc) (*Result, error) {
	n := c.size
	if len(firstProbs) != n {
		return nil, fmt.Errorf("%w: stage-1 vector has length %d, race size is %d",
			models.ErrInvalidRaceSize, len(firstProbs), n)
	}

	result := &Result{
		Distribution: make(models.PermutationProbability, n*(n-1)*(n-2)),
	}

	first, fell := normalizeStage(sanitize(firstProbs), nil)
	if fell {
		result.Fallbacks++
		c.logger.WithField("stage", 1).Debug("Degenerate stage-1 vector, substituted uniform")
	}

	for i := 0; i < n; i++ {
		secondRaw, err := secondFn(i)
		if err != nil {
			return nil, fmt.Errorf("stage-2 predictor failed for winner %d: %w", i+1, err)
		}
		if len(secondRaw) != n {
			return nil, fmt.Errorf("%w: stage-2 vector has length %d, race size is %d",
				models.ErrConditionalLength, len(secondRaw), n)
		}
		second, fell := normalizeStage(sanitize(secondRaw), []int{i})
		if fell {
			result.Fallbacks++
			c.logger.WithFields(logrus.Fields{"stage": 2, "first": i + 1}).
				Debug("Degenerate stage-2 vector, substituted uniform")
		}

		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			thirdRaw, err := thirdFn(i, j)
			if err != nil {
				return nil, fmt.Errorf("stage-3 predictor failed for pair %d-%d: %w", i+1, j+1, err)
			}
			if len(thirdRaw) != n {
				return nil, fmt.Errorf("%w: stage-3 vector has length %d, race size is %d",
					models.ErrConditionalLength, len(thirdRaw), n)
			}
			third, fell := normalizeStage(sanitize(thirdRaw), []int{i, j})
			if fell {
				result.Fallbacks++
				c.logger.WithFields(logrus.Fields{"stage": 3, "first": i + 1, "second": j + 1}).
					Debug("Degenerate stage-3 vector, substituted uniform")
			}

			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				result.Distribution[models.Triple{First: i, Second: j, Third: k}] =
					first[i] * second[j] * third[k]
			}
		}
	}

	renormalize(result.Distribution)
	return result, nil
}

// BlendStartingPositions mixes the stage-1 vector with a starting-position
// distribution using the given weight. Weight 0 returns the stage-1 vector
// unchanged; weight 1 returns the starting-position distribution.
func (c *Composer) BlendStartingPositions(firstProbs, startingPositions []float64, weight float64) []float64 {
	if weight <= 0 || len(startingPositions) != len(firstProbs) {
		return firstProbs
	}
	if weight > 1 {
		weight = 1
	}
	blended := make([]float64, len(firstProbs))
	for i := range firstProbs {
		blended[i] = (1-weight)*firstProbs[i] + weight*startingPositions[i]
	}
	return blended
}

// sanitize returns a copy with NaN, infinite and negative values set to zero.
func sanitize(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out[i] = v
	}
	return out
}

// normalizeStage forces the excluded indices to zero and normalizes the rest
// in place. When no mass remains it substitutes a uniform distribution over
// the eligible indices and reports the fallback.
func normalizeStage(vec []float64, excluded []int) ([]float64, bool) {
	for _, idx := range excluded {
		if idx >= 0 && idx < len(vec) {
			vec[idx] = 0
		}
	}

	total := 0.0
	for _, v := range vec {
		total += v
	}
	if total > 0 {
		for i := range vec {
			vec[i] /= total
		}
		return vec, false
	}

	eligible := len(vec) - len(excluded)
	if eligible <= 0 {
		return vec, true
	}
	uniform := 1.0 / float64(eligible)
	for i := range vec {
		vec[i] = uniform
	}
	for _, idx := range excluded {
		if idx >= 0 && idx < len(vec) {
			vec[idx] = 0
		}
	}
	return vec, true
}

// renormalize scales the distribution so it sums to exactly 1.
func renormalize(dist models.PermutationProbability) {
	total := dist.Total()
	if total <= 0 {
		return
	}
	for key, v := range dist {
		dist[key] = v / total
	}
}
