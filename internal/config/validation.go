// Package config provides configuration management for the Trifecta Engine.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("policy", validatePolicy)
	v.RegisterValidation("stakemethod", validateStakeMethod)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validatePolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "top_n", "threshold", "coverage", "expected_value", "dynamic":
		return true
	default:
		return false
	}
}

func validateStakeMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "equal", "proportional", "kelly":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Staking.MinStake > cfg.Staking.Budget {
		return fmt.Errorf("staking min_stake %.2f exceeds budget %.2f",
			cfg.Staking.MinStake, cfg.Staking.Budget)
	}

	if cfg.Staking.TradableUnit > cfg.Staking.Budget {
		return fmt.Errorf("staking tradable_unit %.2f exceeds budget %.2f",
			cfg.Staking.TradableUnit, cfg.Staking.Budget)
	}

	if cfg.Predictor.Mode != "heuristic" && cfg.Predictor.URL == "" {
		return fmt.Errorf("predictor url is required when mode is %q", cfg.Predictor.Mode)
	}

	if cfg.OddsFeed.Enabled && cfg.OddsFeed.StreamURL == "" {
		return fmt.Errorf("odds_feed stream_url is required when the feed is enabled")
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %v", messages)
}
