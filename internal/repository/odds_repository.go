package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/trifecta-engine/internal/database"
	"github.com/yourusername/trifecta-engine/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// Insert inserts a single odds snapshot
func (o *PostgresOddsRepository) Insert(ctx context.Context, odds *models.CombinationOdds) error {
	query := `
		INSERT INTO combination_odds (time, race_id, market, combination, odds)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := o.db.GetPool().Exec(ctx, query,
		odds.Time, odds.RaceID, odds.Market, odds.Combination, odds.Odds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert odds snapshot: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple odds snapshots using high-performance batch insert
func (o *PostgresOddsRepository) InsertBatch(ctx context.Context, odds []*models.CombinationOdds) error {
	if len(odds) == 0 {
		return nil
	}

	// Use COPY for high-performance bulk insert
	columns := []string{"time", "race_id", "market", "combination", "odds"}

	copyFromSource := make([][]interface{}, len(odds))
	for i, snapshot := range odds {
		copyFromSource[i] = []interface{}{
			snapshot.Time, snapshot.RaceID, snapshot.Market, snapshot.Combination, snapshot.Odds,
		}
	}

	count, err := o.db.GetPool().CopyFrom(ctx, pgx.Identifier{"combination_odds"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert odds snapshots: %w", err)
	}

	if count != int64(len(odds)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(odds))
	}

	return nil
}

// GetByRaceID retrieves odds snapshots for a race and market within a time range
func (o *PostgresOddsRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID, market models.Market, start, end time.Time) ([]*models.CombinationOdds, error) {
	query := `
		SELECT time, race_id, market, combination, odds
		FROM combination_odds
		WHERE race_id = $1 AND market = $2 AND time >= $3 AND time <= $4
		ORDER BY time ASC
	`

	rows, err := o.db.GetPool().Query(ctx, query, raceID, market, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds by race: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.CombinationOdds
	for rows.Next() {
		snapshot := &models.CombinationOdds{}
		err := rows.Scan(
			&snapshot.Time, &snapshot.RaceID, &snapshot.Market, &snapshot.Combination, &snapshot.Odds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// GetLatestTable reduces the stored snapshots to the latest odds per combination
func (o *PostgresOddsRepository) GetLatestTable(ctx context.Context, raceID uuid.UUID, market models.Market) (models.OddsTable, error) {
	query := `
		SELECT DISTINCT ON (combination) time, race_id, market, combination, odds
		FROM combination_odds
		WHERE race_id = $1 AND market = $2
		ORDER BY combination, time DESC
	`

	rows, err := o.db.GetPool().Query(ctx, query, raceID, market)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest odds: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.CombinationOdds
	for rows.Next() {
		snapshot := &models.CombinationOdds{}
		err := rows.Scan(
			&snapshot.Time, &snapshot.RaceID, &snapshot.Market, &snapshot.Combination, &snapshot.Odds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models.BuildOddsTable(snapshots), nil
}
