// Package models defines the core data types shared across the engine.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RaceSize is the canonical number of entrants per race.
const RaceSize = 6

// Entry represents a single competitor on a race card.
// Numbers are 1-indexed externally; internal indices are Number-1.
type Entry struct {
	Number   int       `db:"number" json:"number" validate:"required,min=1"`
	Name     string    `db:"name" json:"name"`
	Features []float64 `json:"features" validate:"required"`
}

// RaceCard represents an immutable feature snapshot of one race.
type RaceCard struct {
	RaceID         uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`
	Venue          string    `db:"venue" json:"venue"`
	RaceNumber     int       `db:"race_number" json:"race_number"`
	ScheduledStart time.Time `db:"scheduled_start" json:"scheduled_start"`
	Entries        []Entry   `json:"entries" validate:"required"`
}

// Validate checks the card holds exactly RaceSize entries numbered 1..RaceSize.
func (rc *RaceCard) Validate() error {
	if len(rc.Entries) != RaceSize {
		return fmt.Errorf("%w: got %d entries, want %d", ErrInvalidRaceSize, len(rc.Entries), RaceSize)
	}
	seen := make(map[int]bool, RaceSize)
	for _, e := range rc.Entries {
		if e.Number < 1 || e.Number > RaceSize {
			return fmt.Errorf("%w: entry number %d out of range", ErrInvalidRaceSize, e.Number)
		}
		if seen[e.Number] {
			return fmt.Errorf("%w: duplicate entry number %d", ErrInvalidRaceSize, e.Number)
		}
		seen[e.Number] = true
	}
	return nil
}

// FeatureRows returns the feature vectors ordered by internal index.
func (rc *RaceCard) FeatureRows() [][]float64 {
	rows := make([][]float64, len(rc.Entries))
	for _, e := range rc.Entries {
		idx := e.Number - 1
		if idx >= 0 && idx < len(rows) {
			rows[idx] = e.Features
		}
	}
	return rows
}
