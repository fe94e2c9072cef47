// Package service orchestrates one prediction run: race card in, composed
// permutation distribution, derived market, bet selection and a final
// betting plan out.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/chain"
	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/logger"
	"github.com/yourusername/trifecta-engine/internal/market"
	"github.com/yourusername/trifecta-engine/internal/metrics"
	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/portfolio"
	"github.com/yourusername/trifecta-engine/internal/predictor"
	"github.com/yourusername/trifecta-engine/internal/repository"
	"github.com/yourusername/trifecta-engine/internal/selector"
)

// PredictionService drives the full pipeline for one race.
type PredictionService struct {
	cfg       *config.Config
	composer  *chain.Composer
	predictor predictor.StagePredictor
	optimizer *portfolio.Optimizer
	repos     *repository.Repositories
	logger    *logrus.Logger
	plog      *logger.PredictionLogger
}

// NewPredictionService wires the pipeline. repos may be nil, in which case
// plans are not persisted and odds must be supplied by the caller.
func NewPredictionService(
	cfg *config.Config,
	stagePredictor predictor.StagePredictor,
	repos *repository.Repositories,
	log *logrus.Logger,
) *PredictionService {
	optimizer := portfolio.NewOptimizer(portfolio.Config{
		MinExpectedValue: cfg.Selection.MinExpectedValue,
		MinProbability:   cfg.Selection.MinProbability,
		TopN:             cfg.Selection.TopN,
		MaxBets:          cfg.Staking.MaxBets,
		Budget:           cfg.Staking.Budget,
		MinStake:         cfg.Staking.MinStake,
		TradableUnit:     cfg.Staking.TradableUnit,
		KellyFraction:    cfg.Staking.KellyFraction,
		Method:           selector.Method(cfg.Staking.Method),
	}, log)

	return &PredictionService{
		cfg:       cfg,
		composer:  chain.NewComposer(cfg.Prediction.RaceSize, log),
		predictor: stagePredictor,
		optimizer: optimizer,
		repos:     repos,
		logger:    log,
		plog:      logger.NewPredictionLogger(log),
	}
}

// ComposeDistribution runs the three prediction stages for a race card and
// composes the joint distribution over finishing-order triples.
//
// startingPositions is an optional prior over first place derived from gate
// draw; it is blended into the stage-1 vector with the configured weight and
// may be nil.
func (s *PredictionService) ComposeDistribution(ctx context.Context, card *models.RaceCard, startingPositions []float64) (*chain.Result, error) {
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid race card: %w", err)
	}

	rows := card.FeatureRows()
	started := time.Now()

	first, err := s.predictor.Predict(ctx, card.RaceID, nil, rows)
	if err != nil {
		return nil, fmt.Errorf("stage-1 prediction failed: %w", err)
	}
	first = s.composer.BlendStartingPositions(first, startingPositions, s.cfg.Prediction.StartingPositionWeight)

	secondFn := func(firstIdx int) ([]float64, error) {
		return s.predictor.Predict(ctx, card.RaceID, []int{firstIdx}, rows)
	}
	thirdFn := func(firstIdx, secondIdx int) ([]float64, error) {
		return s.predictor.Predict(ctx, card.RaceID, []int{firstIdx, secondIdx}, rows)
	}

	result, err := s.composer.Compose(first, secondFn, thirdFn)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	elapsed := time.Since(started)
	metrics.RecordComposition(elapsed.Seconds(), result.Fallbacks)
	s.plog.LogComposition(card.RaceID.String(), len(result.Distribution),
		result.Distribution.Total(), result.Fallbacks, float64(elapsed.Milliseconds()))

	return result, nil
}

// SelectBets applies the configured selection policy to a market
// distribution. The expected-value policy requires an odds table; the other
// policies ignore it.
func (s *PredictionService) SelectBets(dist models.MarketDistribution, odds models.OddsTable) []selector.Candidate {
	return s.policy(dist, odds).Select(dist)
}

// policy resolves the configured selection policy to a Selector.
func (s *PredictionService) policy(dist models.MarketDistribution, odds models.OddsTable) selector.Selector {
	sel := s.cfg.Selection
	switch sel.Policy {
	case "threshold":
		return selector.Threshold{MinProbability: sel.MinProbability}
	case "coverage":
		return selector.Coverage{Target: sel.CoverageTarget}
	case "expected_value":
		return selector.ExpectedValue{
			Odds:             odds,
			MinExpectedValue: sel.MinExpectedValue,
			MinProbability:   sel.MinProbability,
		}
	case "dynamic":
		return selector.Dynamic{Confidence: topProbability(dist)}
	default:
		return selector.TopN{K: sel.TopN}
	}
}

// GeneratePlan runs the full pipeline for one race and market: compose,
// derive, select and size. The plan is persisted when a repository is wired.
func (s *PredictionService) GeneratePlan(ctx context.Context, card *models.RaceCard, m models.Market, odds models.OddsTable, startingPositions []float64) (*models.BettingPlan, error) {
	started := time.Now()

	result, err := s.ComposeDistribution(ctx, card, startingPositions)
	if err != nil {
		return nil, err
	}

	dist := market.Derive(result.Distribution, m)
	plan := s.optimizer.BuildPlan(card.RaceID, m, dist, odds)

	metrics.RecordPlan(string(m), plan.TotalStake, plan.ExpectedROI, plan.IsEmpty())
	metrics.PlanGenerationDuration.Observe(time.Since(started).Seconds())
	s.plog.LogPlan(card.RaceID.String(), string(m), len(plan.Recommendations),
		plan.TotalStake, plan.ExpectedReturn, plan.ExpectedROI)

	if s.repos != nil {
		if err := s.repos.Plan.Save(ctx, plan); err != nil {
			// Persistence failure does not invalidate the computed plan.
			s.logger.WithError(err).WithField("race_id", card.RaceID).
				Warn("Failed to persist betting plan")
		}
	}

	return plan, nil
}

// GeneratePlanWithStoredOdds loads the latest persisted odds table for the
// race before generating the plan. It requires a wired repository.
func (s *PredictionService) GeneratePlanWithStoredOdds(ctx context.Context, card *models.RaceCard, m models.Market, startingPositions []float64) (*models.BettingPlan, error) {
	if s.repos == nil {
		return nil, fmt.Errorf("odds repository not configured")
	}

	odds, err := s.repos.Odds.GetLatestTable(ctx, card.RaceID, m)
	if err != nil {
		return nil, fmt.Errorf("failed to load odds: %w", err)
	}

	return s.GeneratePlan(ctx, card, m, odds, startingPositions)
}

// topProbability returns the highest single-combination probability, used as
// the confidence input for the dynamic selection policy.
func topProbability(dist models.MarketDistribution) float64 {
	top := 0.0
	for _, p := range dist {
		if p > top {
			top = p
		}
	}
	return top
}
