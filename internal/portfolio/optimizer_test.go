package portfolio

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/selector"
)

func testOptimizer(cfg Config) *Optimizer {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewOptimizer(cfg, log)
}

func defaultConfig() Config {
	return Config{
		MinExpectedValue: 0.1,
		MinProbability:   0.01,
		TopN:             3,
		MaxBets:          10,
		Budget:           10000,
		MinStake:         100,
		TradableUnit:     100,
		KellyFraction:    0.25,
		Method:           selector.MethodKelly,
	}
}

func TestBuildPlanPositiveEdges(t *testing.T) {
	dist := models.MarketDistribution{
		"1-2-3": 0.30,
		"2-1-3": 0.20,
		"3-1-2": 0.05,
	}
	odds := models.OddsTable{
		"1-2-3": 6.0,  // ev = 0.8
		"2-1-3": 7.0,  // ev = 0.4
		"3-1-2": 10.0, // ev = -0.5, excluded
	}

	plan := testOptimizer(defaultConfig()).BuildPlan(uuid.New(), models.MarketTrifecta, dist, odds)

	require.Len(t, plan.Recommendations, 2)
	assert.Equal(t, "1-2-3", plan.Recommendations[0].Combination)
	assert.Equal(t, "2-1-3", plan.Recommendations[1].Combination)

	total := 0.0
	for _, r := range plan.Recommendations {
		assert.GreaterOrEqual(t, r.Stake, 100.0)
		assert.Zero(t, math.Mod(r.Stake, 100))
		total += r.Stake
	}
	assert.LessOrEqual(t, total, 10000.0)
	assert.Equal(t, total, plan.TotalStake)

	wantReturn := 0.0
	for _, r := range plan.Recommendations {
		wantReturn += r.Probability * r.Odds * r.Stake
	}
	assert.InDelta(t, wantReturn, plan.ExpectedReturn, 1e-9)
	assert.InDelta(t, (wantReturn-total)/total, plan.ExpectedROI, 1e-9)
	assert.Positive(t, plan.ExpectedROI)
}

func TestBuildPlanFallsBackToTopN(t *testing.T) {
	// All edges negative: EV selection is empty, top-N fallback still prices
	// the entries with the quoted odds.
	dist := models.MarketDistribution{
		"1-2-3": 0.04,
		"2-1-3": 0.03,
		"3-1-2": 0.02,
		"1-3-2": 0.01,
	}
	odds := models.OddsTable{"1-2-3": 8.0, "2-1-3": 9.0, "3-1-2": 11.0}

	cfg := defaultConfig()
	cfg.Method = selector.MethodProportional
	cfg.MinStake = 100

	plan := testOptimizer(cfg).BuildPlan(uuid.New(), models.MarketTrifecta, dist, odds)

	require.Len(t, plan.Recommendations, 3)
	assert.Equal(t, "1-2-3", plan.Recommendations[0].Combination)
	assert.Equal(t, 8.0, plan.Recommendations[0].Odds)
	assert.LessOrEqual(t, plan.TotalStake, cfg.Budget)
	assert.Positive(t, plan.TotalStake)
}

func TestBuildPlanKellyFallbackWithoutEdgeIsEmpty(t *testing.T) {
	// Kelly sizing on the fallback yields zero stakes when no entry has a
	// positive edge; the minimum-stake filter then empties the plan.
	dist := models.MarketDistribution{"1-2-3": 0.04, "2-1-3": 0.03}
	odds := models.OddsTable{"1-2-3": 8.0, "2-1-3": 9.0}

	plan := testOptimizer(defaultConfig()).BuildPlan(uuid.New(), models.MarketTrifecta, dist, odds)

	assert.True(t, plan.IsEmpty())
	assert.Zero(t, plan.TotalStake)
	assert.Zero(t, plan.ExpectedROI)
}

func TestBuildPlanEmptyInputs(t *testing.T) {
	optimizer := testOptimizer(defaultConfig())

	plan := optimizer.BuildPlan(uuid.New(), models.MarketTrifecta, models.MarketDistribution{}, models.OddsTable{"1-2-3": 5})
	assert.True(t, plan.IsEmpty())

	dist := models.MarketDistribution{"1-2-3": 0.3}
	plan = optimizer.BuildPlan(uuid.New(), models.MarketTrifecta, dist, models.OddsTable{})
	assert.True(t, plan.IsEmpty())
}

func TestBuildPlanRespectsMaxBets(t *testing.T) {
	dist := models.MarketDistribution{}
	odds := models.OddsTable{}
	for i := 0; i < 12; i++ {
		key := models.OrderedPairKey(i, i+1)
		dist[key] = 0.05
		odds[key] = 30.0 // ev = 0.5 everywhere
	}

	cfg := defaultConfig()
	cfg.MaxBets = 4
	plan := testOptimizer(cfg).BuildPlan(uuid.New(), models.MarketExacta, dist, odds)

	assert.LessOrEqual(t, len(plan.Recommendations), 4)
	assert.LessOrEqual(t, plan.TotalStake, cfg.Budget)
}
