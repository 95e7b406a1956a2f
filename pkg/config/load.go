package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadWithEnvOverrides for that behavior.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SATURN_SECTION_FIELD (e.g., SATURN_LEDGER_BACKEND) and always
// take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format SATURN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Pricing overrides
	if val := os.Getenv("SATURN_PRICING_DEFAULT_MODEL"); val != "" {
		cfg.Pricing.DefaultModel = val
	}
	if val := os.Getenv("SATURN_PRICING_FILE"); val != "" {
		cfg.Pricing.File = val
	}

	// Budget overrides
	if val := os.Getenv("SATURN_BUDGET_DAILY"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.Daily = f
		}
	}
	if val := os.Getenv("SATURN_BUDGET_WEEKLY"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.Weekly = f
		}
	}
	if val := os.Getenv("SATURN_BUDGET_MONTHLY"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.Monthly = f
		}
	}

	// Rate limit overrides
	if val := os.Getenv("SATURN_RATELIMIT_REQUESTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.Requests = n
		}
	}
	if val := os.Getenv("SATURN_RATELIMIT_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RateLimit.Window = d
		}
	}

	// Ledger overrides
	if val := os.Getenv("SATURN_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("SATURN_LEDGER_SQLITE_PATH"); val != "" {
		cfg.Ledger.SQLite.Path = val
	}
	if val := os.Getenv("SATURN_LEDGER_RETENTION_DAYS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Ledger.Retention.Days = n
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SATURN_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SATURN_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SATURN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("SATURN_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}
