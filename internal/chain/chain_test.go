package chain

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trifecta-engine/internal/models"
)

func testComposer() *Composer {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewComposer(models.RaceSize, log)
}

func echoStages(firstProbs []float64) (SecondFunc, ThirdFunc) {
	second := func(first int) ([]float64, error) {
		out := make([]float64, len(firstProbs))
		copy(out, firstProbs)
		return out, nil
	}
	third := func(first, second int) ([]float64, error) {
		out := make([]float64, len(firstProbs))
		copy(out, firstProbs)
		return out, nil
	}
	return second, third
}

func zeroStages(n int) (SecondFunc, ThirdFunc) {
	second := func(first int) ([]float64, error) {
		return make([]float64, n), nil
	}
	third := func(first, second int) ([]float64, error) {
		return make([]float64, n), nil
	}
	return second, third
}

func TestComposeTotalMassIsOne(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn, thirdFn := echoStages(firstProbs)

	result, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	assert.Len(t, result.Distribution, 6*5*4)
	assert.InDelta(t, 1.0, result.Distribution.Total(), 1e-6)
}

func TestComposeScenarioA(t *testing.T) {
	// Stage-2/3 predictors echo the stage-1 strengths; the chain's force-zero
	// plus renormalization turns them into the conditional distributions.
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn, thirdFn := echoStages(firstProbs)

	result, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	want := 0.30 * (0.25 / 0.70) * (0.20 / 0.45)
	got := result.Distribution[models.Triple{First: 0, Second: 1, Third: 2}]
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 0.0476, got, 1e-3)

	// "1-2-3" must be the single most probable permutation.
	for triple, p := range result.Distribution {
		if triple != (models.Triple{First: 0, Second: 1, Third: 2}) {
			assert.Less(t, p, got, "permutation %s should be below the top one", triple.Key())
		}
	}
}

func TestComposeFirstPlaceMarginal(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn, thirdFn := echoStages(firstProbs)

	result, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	marginals := make([]float64, models.RaceSize)
	for triple, p := range result.Distribution {
		marginals[triple.First] += p
	}
	for i, want := range firstProbs {
		assert.InDelta(t, want, marginals[i], 1e-9, "marginal for entrant %d", i+1)
	}
}

func TestComposeAllZeroStagesFallsBackUniform(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn, thirdFn := zeroStages(models.RaceSize)

	result, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	// 6 stage-2 calls + 30 stage-3 calls, all degenerate.
	assert.Equal(t, 36, result.Fallbacks)
	assert.InDelta(t, 1.0, result.Distribution.Total(), 1e-6)

	// Uniform fallback: P(1st=1, 2nd=2, 3rd=3) = 0.30 * 1/5 * 1/4.
	got := result.Distribution[models.Triple{First: 0, Second: 1, Third: 2}]
	assert.InDelta(t, 0.30/5.0/4.0, got, 1e-9)

	for triple, p := range result.Distribution {
		assert.False(t, math.IsNaN(p), "NaN at %s", triple.Key())
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestComposeDegenerateFirstProbs(t *testing.T) {
	cases := []struct {
		name       string
		firstProbs []float64
	}{
		{"all zero", make([]float64, models.RaceSize)},
		{"nan entries", []float64{math.NaN(), math.NaN(), 0, 0, 0, 0}},
		{"negative entries", []float64{-1, -2, 0, 0, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secondFn, thirdFn := zeroStages(models.RaceSize)
			result, err := testComposer().Compose(tc.firstProbs, secondFn, thirdFn)
			require.NoError(t, err)

			assert.InDelta(t, 1.0, result.Distribution.Total(), 1e-6)
			// Degenerate stage 1 becomes uniform 1/6 over winners.
			marginals := make([]float64, models.RaceSize)
			for triple, p := range result.Distribution {
				marginals[triple.First] += p
			}
			for i := range marginals {
				assert.InDelta(t, 1.0/6.0, marginals[i], 1e-9, "marginal for entrant %d", i+1)
			}
		})
	}
}

func TestComposeSanitizesNegativeAndNaNStageOutput(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn := func(first int) ([]float64, error) {
		return []float64{0.5, math.NaN(), -0.3, 0.5, math.Inf(1), 0}, nil
	}
	thirdFn := func(first, second int) ([]float64, error) {
		return []float64{0.25, 0.25, 0.25, 0.25, -1, math.NaN()}, nil
	}

	result, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Distribution.Total(), 1e-6)
	for triple, p := range result.Distribution {
		assert.False(t, math.IsNaN(p), "NaN at %s", triple.Key())
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestComposeWrongRaceSizeIsFatal(t *testing.T) {
	secondFn, thirdFn := zeroStages(models.RaceSize)

	_, err := testComposer().Compose([]float64{0.5, 0.5}, secondFn, thirdFn)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidRaceSize)
}

func TestComposeWrongStageLengthIsFatal(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn := func(first int) ([]float64, error) {
		return []float64{1, 2, 3}, nil
	}
	_, thirdFn := zeroStages(models.RaceSize)

	_, err := testComposer().Compose(firstProbs, secondFn, thirdFn)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConditionalLength)
}

func TestComposeIsDeterministic(t *testing.T) {
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	secondFn, thirdFn := echoStages(firstProbs)
	composer := testComposer()

	first, err := composer.Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)
	second, err := composer.Compose(firstProbs, secondFn, thirdFn)
	require.NoError(t, err)

	require.Equal(t, len(first.Distribution), len(second.Distribution))
	for triple, p := range first.Distribution {
		assert.Equal(t, p, second.Distribution[triple], "bit-identical value for %s", triple.Key())
	}
}

func TestBlendStartingPositions(t *testing.T) {
	composer := testComposer()
	firstProbs := []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	startPos := []float64{0.40, 0.25, 0.15, 0.10, 0.06, 0.04}

	blended := composer.BlendStartingPositions(firstProbs, startPos, 0.5)
	assert.InDelta(t, 0.35, blended[0], 1e-9)
	assert.InDelta(t, 0.25, blended[1], 1e-9)

	// Weight 0 and mismatched lengths leave the input untouched.
	assert.Equal(t, firstProbs, composer.BlendStartingPositions(firstProbs, startPos, 0))
	assert.Equal(t, firstProbs, composer.BlendStartingPositions(firstProbs, []float64{1}, 0.5))
}
