package models

import (
	"time"

	"github.com/google/uuid"
)

// Market identifies a wager type over the permutation distribution.
type Market string

// Supported markets
const (
	MarketTrifecta Market = "trifecta" // exact 1-2-3 order
	MarketExacta   Market = "exacta"   // exact 1-2 order
	MarketQuinella Market = "quinella" // top two, any order
	MarketTrio     Market = "trio"     // top three, any order
)

// BetRecommendation represents a single recommended wager.
type BetRecommendation struct {
	Combination   string  `db:"combination" json:"combination"`
	Probability   float64 `db:"probability" json:"probability"`
	Odds          float64 `db:"odds" json:"odds,omitempty"`
	ExpectedValue float64 `db:"expected_value" json:"expected_value,omitempty"`
	Stake         float64 `db:"stake" json:"stake"`
}

// BettingPlan represents the final output of one prediction run.
type BettingPlan struct {
	RaceID          uuid.UUID           `db:"race_id" json:"race_id"`
	Market          Market              `db:"market" json:"market"`
	Recommendations []BetRecommendation `json:"recommendations"`
	TotalStake      float64             `db:"total_stake" json:"total_stake"`
	ExpectedReturn  float64             `db:"expected_return" json:"expected_return"`
	ExpectedROI     float64             `db:"expected_roi" json:"expected_roi"`
	GeneratedAt     time.Time           `db:"generated_at" json:"generated_at"`
}

// IsEmpty reports whether the plan recommends no wagers.
func (p *BettingPlan) IsEmpty() bool {
	return len(p.Recommendations) == 0
}
