// Package main provides the one-shot prediction CLI: race card in, betting
// plan out.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/logger"
	"github.com/yourusername/trifecta-engine/internal/models"
	"github.com/yourusername/trifecta-engine/internal/predictor"
	"github.com/yourusername/trifecta-engine/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile   string
	raceCardFile string
	oddsFile     string
	marketName   string
	appLog       *logrus.Logger
	cfg          *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&raceCardFile, "race", "r", "", "Path to race card JSON file (required)")
	rootCmd.Flags().StringVarP(&oddsFile, "odds", "o", "", "Path to odds table JSON file")
	rootCmd.Flags().StringVarP(&marketName, "market", "m", "trifecta", "Market to bet: trifecta, exacta, quinella or trio")
	rootCmd.MarkFlagRequired("race")
}

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: "Generate a betting plan for one race",
	Long: `Runs the full prediction pipeline for a single race card: three-stage
probability composition, market derivation, bet selection and stake sizing.
The resulting plan is printed as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrediction()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runPrediction() error {
	m, err := parseMarket(marketName)
	if err != nil {
		return err
	}

	card, err := loadRaceCard(raceCardFile)
	if err != nil {
		return err
	}

	odds, err := loadOddsTable(oddsFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stagePredictor, err := predictor.New(&cfg.Predictor, cfg.Prediction.RaceSize, predictor.ReferenceTables{}, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize predictor: %w", err)
	}

	svc := service.NewPredictionService(cfg, stagePredictor, nil, appLog)
	plan, err := svc.GeneratePlan(ctx, card, m, odds, nil)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(plan)
}

func parseMarket(name string) (models.Market, error) {
	switch models.Market(name) {
	case models.MarketTrifecta, models.MarketExacta, models.MarketQuinella, models.MarketTrio:
		return models.Market(name), nil
	}
	return "", fmt.Errorf("unknown market %q", name)
}

func loadRaceCard(path string) (*models.RaceCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read race card: %w", err)
	}
	card := &models.RaceCard{}
	if err := json.Unmarshal(data, card); err != nil {
		return nil, fmt.Errorf("failed to parse race card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

func loadOddsTable(path string) (models.OddsTable, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read odds table: %w", err)
	}
	table := models.OddsTable{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse odds table: %w", err)
	}
	return table, nil
}
