package config

import "time"

// Bool returns a pointer to v. The pointer-typed boolean fields below
// distinguish "explicitly false" from "unset"; Bool keeps their struct
// literals readable.
func Bool(v bool) *bool {
	return &v
}

// Config is the root configuration structure for Mercator Saturn.
// It contains all configuration sections for pricing, experiments, budget
// tracking, admission limiting, the usage ledger, and telemetry.
type Config struct {
	// Pricing contains the model price table and fallback settings used
	// for cost computation.
	Pricing PricingConfig `yaml:"pricing"`

	// Experiments contains prompt experiment definitions keyed by
	// experiment name.
	Experiments map[string]ExperimentConfig `yaml:"experiments"`

	// Budget contains spending limits per period and ownership scope.
	Budget BudgetConfig `yaml:"budget"`

	// RateLimit contains admission limiter settings.
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	// Ledger contains usage record storage and retention settings.
	Ledger LedgerConfig `yaml:"ledger"`

	// Telemetry contains configuration for observability including
	// logging, metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PricingConfig contains the model price table used for cost computation.
type PricingConfig struct {
	// Models maps a model identifier to its per-1K-token prices.
	Models map[string]ModelPriceConfig `yaml:"models"`

	// DefaultModel is the model whose pricing is used as a fallback when
	// cost is computed for a model missing from the table. The fallback is
	// non-fatal: a pricing gap is signaled but metering proceeds.
	// Default: "gpt-4o-mini"
	DefaultModel string `yaml:"default_model"`

	// File is an optional path to a pricing YAML file. When set together
	// with Watch, the price table is hot-reloaded on file changes.
	File string `yaml:"file"`

	// Watch enables hot reload of the pricing file.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ModelPriceConfig contains per-1K-token prices for a single model in USD.
type ModelPriceConfig struct {
	// Input is the cost per 1000 input (prompt) tokens.
	Input float64 `yaml:"input"`

	// Output is the cost per 1000 output (completion) tokens.
	Output float64 `yaml:"output"`
}

// ExperimentConfig defines a prompt experiment: a control version and a set
// of weighted variants competing against it.
type ExperimentConfig struct {
	// Control is the control version identifier. It must be registered in
	// the variant registry for the experiment's name.
	Control string `yaml:"control"`

	// Variants lists the competing versions in declaration order. Weights
	// are fractions of traffic and need not sum to 1; the remainder routes
	// to control.
	Variants []VariantConfig `yaml:"variants"`

	// Metadata is arbitrary caller-supplied annotation.
	Metadata map[string]string `yaml:"metadata"`
}

// VariantConfig is a single weighted variant within an experiment.
type VariantConfig struct {
	// Version is the variant version identifier.
	Version string `yaml:"version"`

	// Weight is the fraction of traffic (0.0-1.0) routed to this variant.
	Weight float64 `yaml:"weight"`
}

// BudgetConfig contains spending limits in USD. Zero values mean the limit
// is not configured and is not enforced.
type BudgetConfig struct {
	// Daily is the calendar-day spending limit.
	Daily float64 `yaml:"daily"`

	// Weekly is the calendar-week spending limit (weeks start Sunday).
	Weekly float64 `yaml:"weekly"`

	// Monthly is the calendar-month spending limit.
	Monthly float64 `yaml:"monthly"`

	// PerOwner is the attributed spending limit per owner identifier.
	PerOwner float64 `yaml:"per_owner"`

	// PerProject is the attributed spending limit per project identifier.
	PerProject float64 `yaml:"per_project"`

	// AlertThresholds are the fractions of a limit (0.0-1.0, ascending) at
	// which alerts fire. Each (period, threshold) pair fires at most once
	// until the period's markers are reset.
	// Default: [0.5, 0.8, 0.9, 1.0]
	AlertThresholds []float64 `yaml:"alert_thresholds"`
}

// RateLimitConfig contains admission limiter settings.
type RateLimitConfig struct {
	// Requests is the maximum number of calls admitted per key within
	// Window.
	// Default: 60
	Requests int `yaml:"requests"`

	// Window is the sliding window duration.
	// Default: 1m
	Window time.Duration `yaml:"window"`
}

// LedgerConfig contains usage record storage and retention settings.
type LedgerConfig struct {
	// Backend selects the storage backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend (used when Backend=sqlite).
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention configures periodic pruning of old usage records.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains configuration for the SQLite ledger backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/ledger.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// A pointer so an explicit false is distinguishable from unset.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures periodic pruning of old usage records.
type RetentionConfig struct {
	// Days is the number of days to retain records. 0 disables pruning.
	// Default: 90
	Days int `yaml:"days"`

	// Schedule is a cron expression for when pruning runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing settings.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json", "text", or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected. A pointer so an
	// explicit false is distinguishable from unset.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "saturn"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled controls whether spans are exported. When disabled, a noop
	// tracer is used.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this service in traces.
	// Default: "saturn"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// SampleRate is the trace sampling rate (0.0-1.0).
	// Default: 1.0
	SampleRate float64 `yaml:"sample_rate"`

	// Insecure disables transport security for the exporter connection.
	// A pointer so an explicit false is distinguishable from unset.
	// Default: true
	Insecure *bool `yaml:"insecure"`
}
