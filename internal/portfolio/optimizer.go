// Package portfolio turns a market probability distribution and an odds table
// into one final budget-aware betting plan.
package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/selector"
)

// Config holds the selection thresholds and staking parameters for plan
// construction. The thresholds are deployment configuration, not constants.
type Config struct {
	MinExpectedValue float64
	MinProbability   float64
	TopN             int
	MaxBets          int
	Budget           float64
	MinStake         float64
	TradableUnit     float64
	KellyFraction    float64
	Method           selector.Method
}

// Optimizer builds betting plans: expected-value selection first, top-N
// probability fallback, damped Kelly sizing, minimum-stake filter and budget
// rescale.
type Optimizer struct {
	config    Config
	allocator *selector.Allocator
	logger    *logrus.Logger
}

// NewOptimizer creates an optimizer from configuration.
func NewOptimizer(cfg Config, logger *logrus.Logger) *Optimizer {
	if cfg.Method == "" {
		cfg.Method = selector.MethodKelly
	}
	return &Optimizer{
		config:    cfg,
		allocator: selector.NewAllocator(cfg.Budget, cfg.TradableUnit, cfg.KellyFraction),
		logger:    logger,
	}
}

// BuildPlan produces the final plan for one market of one race. An empty
// distribution or odds table produces an empty plan, never an error.
func (o *Optimizer) BuildPlan(raceID uuid.UUID, m models.Market, dist models.MarketDistribution, odds models.OddsTable) *models.BettingPlan {
	plan := &models.BettingPlan{
		RaceID:          raceID,
		Market:          m,
		Recommendations: []models.BetRecommendation{},
		GeneratedAt:     time.Now().UTC(),
	}
	if len(dist) == 0 {
		return plan
	}

	selected := selector.ExpectedValue{
		Odds:             odds,
		MinExpectedValue: o.config.MinExpectedValue,
		MinProbability:   o.config.MinProbability,
	}.Select(dist)

	if len(selected) == 0 {
		o.logger.WithFields(logrus.Fields{
			"race_id": raceID,
			"market":  m,
		}).Debug("No positive-EV candidates, falling back to top-N selection")
		selected = o.fallbackTopN(dist, odds)
	}

	if len(selected) > o.config.MaxBets {
		selected = selected[:o.config.MaxBets]
	}

	recommendations := o.allocator.Allocate(selected, o.config.Method)
	plan.Recommendations = dropBelowMinimum(recommendations, o.config.MinStake)
	o.fillTotals(plan)

	return plan
}

// fallbackTopN selects on raw probability and attaches quoted odds where the
// table has them, so stake sizing can still price the entries.
func (o *Optimizer) fallbackTopN(dist models.MarketDistribution, odds models.OddsTable) []selector.Candidate {
	selected := selector.TopN{K: o.config.TopN}.Select(dist)
	for i := range selected {
		if quote, ok := odds[selected[i].Combination]; ok && quote > 0 {
			selected[i].Odds = quote
			selected[i].ExpectedValue = selected[i].Probability*quote - 1.0
		}
	}
	return selected
}

func dropBelowMinimum(recs []models.BetRecommendation, minStake float64) []models.BetRecommendation {
	kept := make([]models.BetRecommendation, 0, len(recs))
	for _, r := range recs {
		if r.Stake >= minStake && r.Stake > 0 {
			kept = append(kept, r)
		}
	}
	return kept
}

// fillTotals computes total stake, expected return and expected ROI.
func (o *Optimizer) fillTotals(plan *models.BettingPlan) {
	totalStake := 0.0
	expectedReturn := 0.0
	for _, r := range plan.Recommendations {
		totalStake += r.Stake
		expectedReturn += r.Probability * r.Odds * r.Stake
	}
	plan.TotalStake = totalStake
	plan.ExpectedReturn = expectedReturn
	if totalStake > 0 {
		plan.ExpectedROI = (expectedReturn - totalStake) / totalStake
	}
}
