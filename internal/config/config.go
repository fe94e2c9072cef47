// Package config provides configuration management for the Trifecta Engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Predictor  PredictorConfig  `mapstructure:"predictor" validate:"required"`
	Prediction PredictionConfig `mapstructure:"prediction" validate:"required"`
	Selection  SelectionConfig  `mapstructure:"selection" validate:"required"`
	Staking    StakingConfig    `mapstructure:"staking" validate:"required"`
	RaceCards  RaceCardsConfig  `mapstructure:"race_cards"`
	OddsFeed   OddsFeedConfig   `mapstructure:"odds_feed" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Health     HealthConfig     `mapstructure:"health" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// PredictorConfig represents the stage-predictor model service configuration.
// Mode "auto" probes the model service once at startup and falls back to the
// heuristic variant when it is unreachable.
type PredictorConfig struct {
	Mode                  string  `mapstructure:"mode" validate:"required,oneof=auto model heuristic"`
	URL                   string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// PredictionConfig represents composition parameters
type PredictionConfig struct {
	RaceSize               int     `mapstructure:"race_size" validate:"required,gt=2"`
	StartingPositionWeight float64 `mapstructure:"starting_position_weight" validate:"gte=0,lte=1"`
}

// SelectionConfig represents bet selection configuration
type SelectionConfig struct {
	Policy           string  `mapstructure:"policy" validate:"required,policy"`
	TopN             int     `mapstructure:"top_n" validate:"required,gt=0"`
	MinProbability   float64 `mapstructure:"min_probability" validate:"gte=0,lte=1"`
	CoverageTarget   float64 `mapstructure:"coverage_target" validate:"gte=0,lte=1"`
	MinExpectedValue float64 `mapstructure:"min_expected_value" validate:"gte=0"`
}

// StakingConfig represents stake sizing configuration
type StakingConfig struct {
	Budget        float64 `mapstructure:"budget" validate:"required,gt=0"`
	Method        string  `mapstructure:"method" validate:"required,stakemethod"`
	KellyFraction float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	TradableUnit  float64 `mapstructure:"tradable_unit" validate:"required,gt=0"`
	MinStake      float64 `mapstructure:"min_stake" validate:"required,gt=0"`
	MaxBets       int     `mapstructure:"max_bets" validate:"required,gt=0"`
}

// RaceCardsConfig represents the upstream race card provider, used by the
// daemon to discover upcoming races.
type RaceCardsConfig struct {
	URL                string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
}

// OddsFeedConfig represents the streaming odds feed configuration
type OddsFeedConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	StreamURL         string `mapstructure:"stream_url" validate:"omitempty"`
	APIKey            string `mapstructure:"api_key"`
	ReconnectMax      int    `mapstructure:"reconnect_max" validate:"gte=0"`
	HeartbeatSeconds  int    `mapstructure:"heartbeat_seconds" validate:"gte=0"`
}

// SchedulerConfig represents daemon-mode job scheduling
type SchedulerConfig struct {
	PredictionCron     string `mapstructure:"prediction_cron" validate:"required"`
	OddsRefreshSeconds int    `mapstructure:"odds_refresh_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// TracingConfig represents AWS X-Ray tracing configuration
type TracingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DaemonAddr string `mapstructure:"daemon_addr"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
