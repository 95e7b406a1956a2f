package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "ledger.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePricing(&cfg.Pricing)...)
	errs = append(errs, validateExperiments(cfg.Experiments)...)
	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	for model, price := range cfg.Models {
		if price.Input < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("pricing.models.%s.input", model),
				Message: "price must not be negative",
			})
		}
		if price.Output < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("pricing.models.%s.output", model),
				Message: "price must not be negative",
			})
		}
	}

	if cfg.DefaultModel == "" {
		errs = append(errs, FieldError{
			Field:   "pricing.default_model",
			Message: "default model must not be empty",
		})
	}

	return errs
}

func validateExperiments(experiments map[string]ExperimentConfig) []FieldError {
	var errs []FieldError

	// Deterministic error ordering for multi-experiment configs.
	names := make([]string, 0, len(experiments))
	for name := range experiments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exp := experiments[name]
		if exp.Control == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("experiments.%s.control", name),
				Message: "control version must not be empty",
			})
		}

		var totalWeight float64
		for i, v := range exp.Variants {
			if v.Version == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("experiments.%s.variants[%d].version", name, i),
					Message: "variant version must not be empty",
				})
			}
			if v.Weight < 0 || v.Weight > 1 {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("experiments.%s.variants[%d].weight", name, i),
					Message: "weight must be between 0.0 and 1.0",
				})
			}
			totalWeight += v.Weight
		}
		if totalWeight > 1 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("experiments.%s.variants", name),
				Message: fmt.Sprintf("variant weights sum to %.2f, must not exceed 1.0", totalWeight),
			})
		}
	}

	return errs
}

func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError

	for _, limit := range []struct {
		field string
		value float64
	}{
		{"budget.daily", cfg.Daily},
		{"budget.weekly", cfg.Weekly},
		{"budget.monthly", cfg.Monthly},
		{"budget.per_owner", cfg.PerOwner},
		{"budget.per_project", cfg.PerProject},
	} {
		if limit.value < 0 {
			errs = append(errs, FieldError{
				Field:   limit.field,
				Message: "limit must not be negative",
			})
		}
	}

	prev := 0.0
	for i, t := range cfg.AlertThresholds {
		if t <= 0 || t > 1 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("budget.alert_thresholds[%d]", i),
				Message: "threshold must be in (0.0, 1.0]",
			})
		}
		if t <= prev && i > 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("budget.alert_thresholds[%d]", i),
				Message: "thresholds must be strictly ascending",
			})
		}
		prev = t
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.Requests <= 0 {
		errs = append(errs, FieldError{
			Field:   "ratelimit.requests",
			Message: "requests must be positive",
		})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "ratelimit.window",
			Message: "window must be positive",
		})
	}

	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "ledger.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "ledger.sqlite.path",
			Message: "path must not be empty when backend is sqlite",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.retention.days",
			Message: "retention days must not be negative",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "ledger.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Logging.Format),
		})
	}

	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_rate",
			Message: "sample rate must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint must not be empty when tracing is enabled",
		})
	}

	return errs
}
