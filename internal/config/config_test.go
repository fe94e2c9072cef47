package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfigYAML() string {
	return `
app:
  name: trifecta-engine
  environment: development
  log_level: debug
database:
  host: localhost
  port: 5432
  name: trifecta
  user: engine
  password: secret
  ssl_mode: disable
  max_connections: 10
  max_idle_connections: 2
predictor:
  mode: heuristic
  request_timeout_seconds: 5
  retry_attempts: 2
  rate_limit_per_second: 5
  cache_ttl_seconds: 60
prediction:
  race_size: 6
  starting_position_weight: 0.2
selection:
  policy: expected_value
  top_n: 5
  min_probability: 0.01
  coverage_target: 0.5
  min_expected_value: 0.1
staking:
  budget: 10000
  method: kelly
  kelly_fraction: 0.25
  tradable_unit: 100
  min_stake: 100
  max_bets: 10
odds_feed:
  enabled: false
scheduler:
  prediction_cron: "*/5 * * * *"
  odds_refresh_seconds: 30
metrics:
  enabled: true
  port: 9090
  path: /metrics
health:
  port: 8080
`
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML())

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trifecta-engine", cfg.App.Name)
	assert.Equal(t, 6, cfg.Prediction.RaceSize)
	assert.Equal(t, 0.25, cfg.Staking.KellyFraction)
	assert.Equal(t, "expected_value", cfg.Selection.Policy)
	assert.True(t, cfg.IsDevelopment())

	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadWithDefaultsNoFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Predictor.Mode)
	assert.Equal(t, 6, cfg.Prediction.RaceSize)
	assert.Equal(t, 100.0, cfg.Staking.TradableUnit)
	assert.Equal(t, 10000.0, cfg.Staking.Budget)
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML())
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Selection.Policy = "martingale"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsMinStakeAboveBudget(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML())
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Staking.MinStake = cfg.Staking.Budget + 1
	assert.Error(t, Validate(cfg))
}

func TestValidateRequiresPredictorURLInModelMode(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML())
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Predictor.Mode = "model"
	cfg.Predictor.URL = ""
	assert.Error(t, Validate(cfg))
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "expanded-secret")
	yaml := strings.Replace(validConfigYAML(), "password: secret", "password: ${TEST_DB_PASSWORD}", 1)
	path := writeTempConfig(t, yaml)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-secret", cfg.Database.Password)
}
