package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/trifecta-engine/internal/database"
	"github.com/yourusername/trifecta-engine/internal/models"
)

// PostgresPlanRepository implements PlanRepository for PostgreSQL
type PostgresPlanRepository struct {
	db *database.DB
}

// NewPostgresPlanRepository creates a new plan repository
func NewPostgresPlanRepository(db *database.DB) PlanRepository {
	return &PostgresPlanRepository{db: db}
}

// Save stores a plan and its recommendations in one transaction
func (p *PostgresPlanRepository) Save(ctx context.Context, plan *models.BettingPlan) error {
	return p.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var planID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO betting_plans (race_id, market, total_stake, expected_return, expected_roi, generated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, plan.RaceID, plan.Market, plan.TotalStake, plan.ExpectedReturn, plan.ExpectedROI, plan.GeneratedAt,
		).Scan(&planID)
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}

		for _, rec := range plan.Recommendations {
			_, err := tx.Exec(ctx, `
				INSERT INTO plan_recommendations (plan_id, combination, probability, odds, expected_value, stake)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, planID, rec.Combination, rec.Probability, rec.Odds, rec.ExpectedValue, rec.Stake)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation %s: %w", rec.Combination, err)
			}
		}

		return nil
	})
}

// GetByRaceID retrieves the most recent plan for a race and market
func (p *PostgresPlanRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID, market models.Market) (*models.BettingPlan, error) {
	var planID int64
	plan := &models.BettingPlan{}
	err := p.db.GetPool().QueryRow(ctx, `
		SELECT id, race_id, market, total_stake, expected_return, expected_roi, generated_at
		FROM betting_plans
		WHERE race_id = $1 AND market = $2
		ORDER BY generated_at DESC
		LIMIT 1
	`, raceID, market).Scan(
		&planID, &plan.RaceID, &plan.Market, &plan.TotalStake, &plan.ExpectedReturn, &plan.ExpectedROI, &plan.GeneratedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	rows, err := p.db.GetPool().Query(ctx, `
		SELECT combination, probability, odds, expected_value, stake
		FROM plan_recommendations
		WHERE plan_id = $1
		ORDER BY stake DESC, combination ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.BetRecommendation
		err := rows.Scan(&rec.Combination, &rec.Probability, &rec.Odds, &rec.ExpectedValue, &rec.Stake)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		plan.Recommendations = append(plan.Recommendations, rec)
	}

	return plan, rows.Err()
}
