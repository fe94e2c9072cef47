// Package backtest replays historical races through the prediction pipeline
// and settles the generated plans against the actual finishing orders.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/service"
)

// HistoricalRace bundles everything needed to replay one race: the card as
// it stood before the start, the closing odds, and the actual outcome.
type HistoricalRace struct {
	Card    *models.RaceCard
	Odds    models.OddsTable
	Outcome models.Triple // internal indices of the actual top three
}

// SettledBet records one recommendation settled against the outcome.
type SettledBet struct {
	RaceID      uuid.UUID `json:"race_id"`
	Combination string    `json:"combination"`
	Stake       float64   `json:"stake"`
	Odds        float64   `json:"odds"`
	Payout      float64   `json:"payout"`
	Won         bool      `json:"won"`
}

// EquityPoint is one bankroll sample, taken after each settled race.
type EquityPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Result holds the replay trail for one backtest run.
type Result struct {
	InitialBankroll float64       `json:"initial_bankroll"`
	FinalBankroll   float64       `json:"final_bankroll"`
	Bets            []SettledBet  `json:"bets"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
	Races           int           `json:"races"`
	SkippedRaces    int           `json:"skipped_races"`
}

// Engine replays races through a prediction service.
type Engine struct {
	svc             *service.PredictionService
	market          models.Market
	initialBankroll float64
	logger          *logrus.Logger
}

// NewEngine creates a backtest engine.
func NewEngine(svc *service.PredictionService, m models.Market, initialBankroll float64, logger *logrus.Logger) (*Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("prediction service is required")
	}
	if initialBankroll <= 0 {
		return nil, fmt.Errorf("initial bankroll must be positive")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		svc:             svc,
		market:          m,
		initialBankroll: initialBankroll,
		logger:          logger,
	}, nil
}

// Run replays the races in order and returns the settled result with its
// performance metrics. Races whose plan generation fails are skipped.
func (e *Engine) Run(ctx context.Context, races []*HistoricalRace) (*Result, Metrics, error) {
	result := &Result{
		InitialBankroll: e.initialBankroll,
		FinalBankroll:   e.initialBankroll,
	}
	result.EquityCurve = append(result.EquityCurve, EquityPoint{
		Time:  time.Now().UTC(),
		Value: e.initialBankroll,
	})

	for _, race := range races {
		if err := ctx.Err(); err != nil {
			return nil, Metrics{}, err
		}

		plan, err := e.svc.GeneratePlan(ctx, race.Card, e.market, race.Odds, nil)
		if err != nil {
			e.logger.WithError(err).WithField("race_id", race.Card.RaceID).
				Warn("Skipping race, plan generation failed")
			result.SkippedRaces++
			continue
		}
		result.Races++

		winning := winningKey(e.market, race.Outcome)
		for _, rec := range plan.Recommendations {
			bet := SettledBet{
				RaceID:      race.Card.RaceID,
				Combination: rec.Combination,
				Stake:       rec.Stake,
				Odds:        rec.Odds,
			}
			if rec.Combination == winning && rec.Odds > 0 {
				bet.Won = true
				bet.Payout = rec.Stake * rec.Odds
			}
			result.FinalBankroll += bet.Payout - bet.Stake
			result.Bets = append(result.Bets, bet)
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Time:  race.Card.ScheduledStart,
			Value: result.FinalBankroll,
		})
	}

	metrics := CalculateMetrics(result)
	e.logger.WithFields(logrus.Fields{
		"races":        result.Races,
		"bets":         len(result.Bets),
		"total_return": metrics.TotalReturn,
		"win_rate":     metrics.WinRate,
	}).Info("Backtest run completed")

	return result, metrics, nil
}

// winningKey derives the paying combination key for a market from the actual
// finishing triple.
func winningKey(m models.Market, outcome models.Triple) string {
	switch m {
	case models.MarketExacta:
		return models.OrderedPairKey(outcome.First, outcome.Second)
	case models.MarketQuinella:
		return models.SortedPairKey(outcome.First, outcome.Second)
	case models.MarketTrio:
		return models.SortedTripleKey(outcome.First, outcome.Second, outcome.Third)
	default:
		return outcome.Key()
	}
}
