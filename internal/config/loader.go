// Package config provides configuration management for the Trifecta Engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("TRIFECTA_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// The defaults correspond to a conservative paper-trading deployment.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRIFECTA_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "trifecta-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("predictor.mode", "auto")
	v.SetDefault("predictor.request_timeout_seconds", 10)
	v.SetDefault("predictor.retry_attempts", 3)
	v.SetDefault("predictor.rate_limit_per_second", 10.0)
	v.SetDefault("predictor.cache_ttl_seconds", 300)
	v.SetDefault("prediction.race_size", 6)
	v.SetDefault("prediction.starting_position_weight", 0.0)
	v.SetDefault("selection.policy", "expected_value")
	v.SetDefault("selection.top_n", 5)
	v.SetDefault("selection.min_probability", 0.01)
	v.SetDefault("selection.coverage_target", 0.5)
	v.SetDefault("selection.min_expected_value", 0.1)
	v.SetDefault("staking.budget", 10000.0)
	v.SetDefault("staking.method", "kelly")
	v.SetDefault("staking.kelly_fraction", 0.25)
	v.SetDefault("staking.tradable_unit", 100.0)
	v.SetDefault("staking.min_stake", 100.0)
	v.SetDefault("staking.max_bets", 10)
	v.SetDefault("race_cards.timeout_seconds", 30)
	v.SetDefault("race_cards.retry_attempts", 3)
	v.SetDefault("race_cards.rate_limit_per_second", 10.0)
	v.SetDefault("scheduler.prediction_cron", "*/5 * * * *")
	v.SetDefault("scheduler.odds_refresh_seconds", 30)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
	v.SetDefault("health.port", 8080)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}
