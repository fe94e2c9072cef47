package models

import (
	"time"

	"github.com/google/uuid"
)

// CombinationOdds represents a point-in-time snapshot of pari-mutuel odds
// for one combination in one market.
type CombinationOdds struct {
	Time        time.Time `db:"time" json:"time" validate:"required"`
	RaceID      uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`
	Market      Market    `db:"market" json:"market" validate:"required"`
	Combination string    `db:"combination" json:"combination" validate:"required"`
	Odds        float64   `db:"odds" json:"odds" validate:"required,gt=0"`
}

// OddsTable maps combination keys to decimal payout multipliers.
type OddsTable map[string]float64

// BuildOddsTable reduces snapshots to the latest odds per combination.
func BuildOddsTable(snapshots []*CombinationOdds) OddsTable {
	latest := make(map[string]*CombinationOdds, len(snapshots))
	for _, s := range snapshots {
		existing, ok := latest[s.Combination]
		if !ok || s.Time.After(existing.Time) {
			latest[s.Combination] = s
		}
	}
	table := make(OddsTable, len(latest))
	for key, s := range latest {
		if s.Odds > 0 {
			table[key] = s.Odds
		}
	}
	return table
}
