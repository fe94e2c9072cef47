// Package scheduler runs the daemon's periodic jobs: prediction runs for
// upcoming races and persistence of live odds snapshots.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/repository"
	"github.com/yourusername/trifecta-engine/internal/service"
	"github.com/yourusername/trifecta-engine/internal/tracing"
)

// RaceCardSource provides the race cards to predict on.
type RaceCardSource interface {
	// UpcomingRaces returns cards for races that have not started yet.
	UpcomingRaces(ctx context.Context) ([]*models.RaceCard, error)
}

// OddsSource provides the current live odds table for a race.
type OddsSource interface {
	Table(raceID uuid.UUID) models.OddsTable
}

// Scheduler manages the periodic prediction and odds jobs
type Scheduler struct {
	cron            *cron.Cron
	predictionSvc   *service.PredictionService
	cards           RaceCardSource
	odds            OddsSource
	repos           *repository.Repositories
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. odds and repos may be nil; the
// corresponding jobs then run without live odds or without persistence.
func NewScheduler(
	predictionSvc *service.PredictionService,
	cards RaceCardSource,
	odds OddsSource,
	repos *repository.Repositories,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		predictionSvc:   predictionSvc,
		cards:           cards,
		odds:            odds,
		repos:           repos,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// SchedulePredictionRuns schedules plan generation for all upcoming races
func (s *Scheduler) SchedulePredictionRuns(cronExpression string, m models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		cards, err := s.cards.UpcomingRaces(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch upcoming races")
			return
		}

		for _, card := range cards {
			var table models.OddsTable
			if s.odds != nil {
				table = s.odds.Table(card.RaceID)
			}

			runCtx, seg := tracing.StartSegment(ctx, "prediction-run")
			tracing.AddAnnotation(runCtx, "race_id", card.RaceID.String())

			plan, err := s.predictionSvc.GeneratePlan(runCtx, card, m, table, nil)
			seg.Close(err)
			if err != nil {
				s.logger.WithError(err).WithField("race_id", card.RaceID).
					Error("Scheduled prediction run failed")
				continue
			}

			s.logger.WithFields(logrus.Fields{
				"race_id":     card.RaceID,
				"bets":        len(plan.Recommendations),
				"total_stake": plan.TotalStake,
			}).Info("Scheduled prediction run completed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled prediction runs")

	return nil
}

// ScheduleOddsSnapshots schedules periodic persistence of live odds tables
func (s *Scheduler) ScheduleOddsSnapshots(intervalSeconds int, m models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.odds == nil || s.repos == nil {
		return fmt.Errorf("odds snapshots require a live odds source and a repository")
	}

	if intervalSeconds < 5 {
		intervalSeconds = 5
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(intervalSeconds-1)*time.Second)
		defer cancel()

		cards, err := s.cards.UpcomingRaces(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch upcoming races")
			return
		}

		now := time.Now().UTC()
		for _, card := range cards {
			table := s.odds.Table(card.RaceID)
			if len(table) == 0 {
				continue
			}

			snapshots := make([]*models.CombinationOdds, 0, len(table))
			for combination, odds := range table {
				snapshots = append(snapshots, &models.CombinationOdds{
					Time:        now,
					RaceID:      card.RaceID,
					Market:      m,
					Combination: combination,
					Odds:        odds,
				})
			}

			if err := s.repos.Odds.InsertBatch(ctx, snapshots); err != nil {
				s.logger.WithError(err).WithField("race_id", card.RaceID).
					Error("Failed to persist odds snapshot")
			}
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled odds snapshots")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}

	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
