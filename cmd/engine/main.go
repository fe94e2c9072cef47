// Package main provides the entry point for the prediction daemon.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/database"
	"github.com/yourusername/trifecta-engine/internal/datasource"
	"github.com/yourusername/trifecta-engine/internal/health"
	"github.com/yourusername/trifecta-engine/internal/logger"
	"github.com/yourusername/trifecta-engine/internal/metrics"
	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/oddsfeed"
	"github.com/yourusername/trifecta-engine/internal/predictor"
	"github.com/yourusername/trifecta-engine/internal/repository"
	"github.com/yourusername/trifecta-engine/internal/scheduler"
	"github.com/yourusername/trifecta-engine/internal/service"
	"github.com/yourusername/trifecta-engine/internal/tracing"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

func main() {
	configPath := os.Getenv("TRIFECTA_ENGINE_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Trifecta engine starting")

	if cfg.Tracing.Enabled {
		err := tracing.Initialize(tracing.Config{
			ServiceName: cfg.App.Name,
			Enabled:     true,
			DaemonAddr:  cfg.Tracing.DaemonAddr,
		}, appLog)
		if err != nil {
			appLog.WithError(err).Warn("Failed to initialize tracing")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.InitRegistry()

	// Database and repositories
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewDB(dbCtx, &cfg.Database)
	dbCancel()
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}
	appLog.Info("Database connection established")

	// Stage predictor: capability check happens here, once.
	stagePredictor, err := predictor.New(&cfg.Predictor, cfg.Prediction.RaceSize, predictor.ReferenceTables{}, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize stage predictor")
	}

	predictionSvc := service.NewPredictionService(cfg, stagePredictor, repos, appLog)

	// Race card provider
	cards := datasource.NewRaceCardClient(&cfg.RaceCards, appLog)
	defer cards.Close()

	// Live odds feed
	var feed *oddsfeed.StreamClient
	var oddsSource scheduler.OddsSource
	if cfg.OddsFeed.Enabled {
		feed = oddsfeed.NewStreamClient(&cfg.OddsFeed, appLog)
		feed.AddHandler(func(odds *models.CombinationOdds) error {
			insertCtx, insertCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer insertCancel()
			return repos.Odds.Insert(insertCtx, odds)
		})

		if err := feed.ConnectWithRetry(ctx); err != nil {
			appLog.WithError(err).Warn("Odds feed unavailable, continuing with persisted odds")
		} else {
			defer feed.Close()
			subscribeToUpcoming(ctx, feed, cards, appLog)
			oddsSource = feed
		}
	}

	// Scheduler
	sched := scheduler.NewScheduler(predictionSvc, cards, oddsSource, repos, appLog)
	if err := sched.SchedulePredictionRuns(cfg.Scheduler.PredictionCron, models.MarketTrifecta); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule prediction runs")
	}
	if oddsSource != nil {
		if err := sched.ScheduleOddsSnapshots(cfg.Scheduler.OddsRefreshSeconds, models.MarketTrifecta); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule odds snapshots")
		}
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// Health and metrics server
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Predictor:   stagePredictor.Variant(),
		Port:        strconv.Itoa(cfg.Health.Port),
		Logger:      appLog,
		DB:          db,
		Feed:        feedStatus(feed),
		Metrics:     metricsHandler(cfg),
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	appLog.Info("Trifecta engine running")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	appLog.WithField("signal", sig.String()).Info("Shutting down")
	healthServer.SetReady(false)
	cancel()
}

// subscribeToUpcoming subscribes the odds feed to every race the provider
// currently lists.
func subscribeToUpcoming(ctx context.Context, feed *oddsfeed.StreamClient, cards scheduler.RaceCardSource, appLog *logrus.Logger) {
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
	defer fetchCancel()

	upcoming, err := cards.UpcomingRaces(fetchCtx)
	if err != nil {
		appLog.WithError(err).Warn("Failed to fetch upcoming races for odds subscription")
		return
	}

	raceIDs := make([]uuid.UUID, 0, len(upcoming))
	for _, card := range upcoming {
		raceIDs = append(raceIDs, card.RaceID)
	}
	if len(raceIDs) == 0 {
		return
	}

	if err := feed.Subscribe(raceIDs); err != nil {
		appLog.WithError(err).Warn("Failed to subscribe to odds updates")
	}
}

func feedStatus(feed *oddsfeed.StreamClient) health.FeedStatus {
	if feed == nil {
		return nil
	}
	return feed
}

func metricsHandler(cfg *config.Config) http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Handler()
}
