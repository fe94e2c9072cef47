package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/predictor"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "trifecta-engine",
			Environment: "development",
			LogLevel:    "error",
		},
		Predictor: config.PredictorConfig{
			Mode: "heuristic",
		},
		Prediction: config.PredictionConfig{
			RaceSize:               models.RaceSize,
			StartingPositionWeight: 0,
		},
		Selection: config.SelectionConfig{
			Policy:           "top_n",
			TopN:             5,
			MinProbability:   0.01,
			CoverageTarget:   0.5,
			MinExpectedValue: 0.1,
		},
		Staking: config.StakingConfig{
			Budget:        10000,
			Method:        "proportional",
			KellyFraction: 0.25,
			TradableUnit:  100,
			MinStake:      100,
			MaxBets:       10,
		},
	}
}

func testRaceCard() *models.RaceCard {
	entries := make([]models.Entry, models.RaceSize)
	strengths := []float64{0.9, 0.7, 0.5, 0.3, 0.2, 0.1}
	for i := range entries {
		entries[i] = models.Entry{
			Number:   i + 1,
			Name:     "Entrant",
			Features: []float64{strengths[i], strengths[i] * 0.9},
		}
	}
	return &models.RaceCard{
		RaceID:         uuid.New(),
		Venue:          "Edogawa",
		RaceNumber:     7,
		ScheduledStart: time.Now().Add(30 * time.Minute),
		Entries:        entries,
	}
}

func newTestService(t *testing.T, cfg *config.Config) *PredictionService {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	pred, err := predictor.New(&cfg.Predictor, cfg.Prediction.RaceSize, predictor.ReferenceTables{}, log)
	require.NoError(t, err)

	return NewPredictionService(cfg, pred, nil, log)
}

func TestComposeDistributionFullMass(t *testing.T) {
	svc := newTestService(t, testConfig())

	result, err := svc.ComposeDistribution(context.Background(), testRaceCard(), nil)
	require.NoError(t, err)

	assert.Len(t, result.Distribution, 120)
	assert.InDelta(t, 1.0, result.Distribution.Total(), 1e-9)
	assert.Zero(t, result.Fallbacks)
}

func TestComposeDistributionInvalidCard(t *testing.T) {
	svc := newTestService(t, testConfig())

	card := testRaceCard()
	card.Entries = card.Entries[:4]

	_, err := svc.ComposeDistribution(context.Background(), card, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidRaceSize)
}

func TestComposeDistributionStartingPositionBlend(t *testing.T) {
	cfg := testConfig()
	cfg.Prediction.StartingPositionWeight = 1.0
	svc := newTestService(t, cfg)

	// With full weight the stage-1 vector is the gate prior: all mass on
	// gate 6, so every composed triple has entrant 6 first.
	prior := []float64{0, 0, 0, 0, 0, 1}
	result, err := svc.ComposeDistribution(context.Background(), testRaceCard(), prior)
	require.NoError(t, err)

	for triple, p := range result.Distribution {
		if triple.First != 5 && p > 0 {
			t.Fatalf("unexpected mass %v on triple %v", p, triple)
		}
	}
}

func TestGeneratePlanTopNFallback(t *testing.T) {
	svc := newTestService(t, testConfig())

	plan, err := svc.GeneratePlan(context.Background(), testRaceCard(), models.MarketTrifecta, nil, nil)
	require.NoError(t, err)

	// No odds: EV selection yields nothing, top-N fallback fills the plan.
	require.False(t, plan.IsEmpty())
	assert.Len(t, plan.Recommendations, 5)
	assert.LessOrEqual(t, plan.TotalStake, 10000.0)
	for _, rec := range plan.Recommendations {
		assert.Zero(t, int(rec.Stake)%100)
	}
}

func TestGeneratePlanWithOdds(t *testing.T) {
	svc := newTestService(t, testConfig())

	card := testRaceCard()
	result, err := svc.ComposeDistribution(context.Background(), card, nil)
	require.NoError(t, err)

	// Quote generous odds on the most probable combination so it clears
	// the expected-value gate.
	var bestKey string
	best := 0.0
	for triple, p := range result.Distribution {
		if p > best {
			best = p
			bestKey = triple.Key()
		}
	}
	odds := models.OddsTable{bestKey: 3.0 / best}

	plan, err := svc.GeneratePlan(context.Background(), card, models.MarketTrifecta, odds, nil)
	require.NoError(t, err)
	require.Len(t, plan.Recommendations, 1)
	assert.Equal(t, bestKey, plan.Recommendations[0].Combination)
	// The only quoted combination gets the whole budget.
	assert.Equal(t, 10000.0, plan.TotalStake)
	assert.InDelta(t, 2.0, plan.ExpectedROI, 1e-9)
}

func TestSelectBetsPolicies(t *testing.T) {
	dist := models.MarketDistribution{
		"1-2-3": 0.5,
		"2-1-3": 0.3,
		"3-1-2": 0.15,
		"3-2-1": 0.05,
	}

	cases := []struct {
		policy string
		want   int
	}{
		{"top_n", 4}, // TopN=5 capped by distribution size
		{"threshold", 3},
		{"coverage", 1},
		{"dynamic", 4}, // confidence 0.5 resolves to k=5, capped at 4
	}

	for _, tc := range cases {
		t.Run(tc.policy, func(t *testing.T) {
			cfg := testConfig()
			cfg.Selection.Policy = tc.policy
			cfg.Selection.MinProbability = 0.10
			svc := newTestService(t, cfg)

			selected := svc.SelectBets(dist, nil)
			assert.Len(t, selected, tc.want)
		})
	}
}

func TestSelectBetsExpectedValuePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Selection.Policy = "expected_value"
	svc := newTestService(t, cfg)

	dist := models.MarketDistribution{"1-2-3": 0.5, "2-1-3": 0.3}
	odds := models.OddsTable{"1-2-3": 4.0, "2-1-3": 2.0}

	selected := svc.SelectBets(dist, odds)
	// 0.5*4-1 = 1.0 passes, 0.3*2-1 = -0.4 fails.
	require.Len(t, selected, 1)
	assert.Equal(t, "1-2-3", selected[0].Combination)
}
