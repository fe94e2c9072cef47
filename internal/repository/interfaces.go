// Package repository provides PostgreSQL persistence for odds snapshots and
// generated betting plans.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trifecta-engine/internal/models"
)

// OddsRepository stores and retrieves combination odds snapshots.
type OddsRepository interface {
	// Insert stores a single odds snapshot.
	Insert(ctx context.Context, odds *models.CombinationOdds) error
	// InsertBatch stores multiple odds snapshots in one round trip.
	InsertBatch(ctx context.Context, odds []*models.CombinationOdds) error
	// GetByRaceID retrieves all snapshots for a race and market within a
	// time range, oldest first.
	GetByRaceID(ctx context.Context, raceID uuid.UUID, market models.Market, start, end time.Time) ([]*models.CombinationOdds, error)
	// GetLatestTable reduces the stored snapshots for a race and market to
	// the most recent odds per combination.
	GetLatestTable(ctx context.Context, raceID uuid.UUID, market models.Market) (models.OddsTable, error)
}

// PlanRepository stores and retrieves generated betting plans.
type PlanRepository interface {
	// Save stores a plan and its recommendations atomically.
	Save(ctx context.Context, plan *models.BettingPlan) error
	// GetByRaceID retrieves the most recent plan for a race and market.
	GetByRaceID(ctx context.Context, raceID uuid.UUID, market models.Market) (*models.BettingPlan, error)
}
