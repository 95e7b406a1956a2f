package config

import "time"

// Default values for configuration fields.
const (
	// Pricing defaults
	DefaultPricingModel = "gpt-4o-mini"

	// Rate limit defaults
	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = time.Minute

	// Ledger defaults
	DefaultLedgerBackend      = "memory"
	DefaultSQLitePath         = "data/ledger.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultRetentionDays      = 90
	DefaultRetentionSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "mercator"
	DefaultMetricsSubsystem = "saturn"
	DefaultTracingService   = "saturn"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingSample    = 1.0
	DefaultTracingInsecure  = true
)

// DefaultAlertThresholds are the budget alert thresholds applied when none
// are configured.
var DefaultAlertThresholds = []float64{0.5, 0.8, 0.9, 1.0}

// ApplyDefaults fills in default values for unset configuration fields.
// Defaults are resolved exactly once, at construction time; no call site
// merges defaults later.
func ApplyDefaults(cfg *Config) {
	// Pricing defaults
	if cfg.Pricing.DefaultModel == "" {
		cfg.Pricing.DefaultModel = DefaultPricingModel
	}

	// Budget defaults
	if len(cfg.Budget.AlertThresholds) == 0 {
		cfg.Budget.AlertThresholds = append([]float64(nil), DefaultAlertThresholds...)
	}

	// Rate limit defaults
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = DefaultRateLimitRequests
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = DefaultRateLimitWindow
	}

	// Ledger defaults
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.SQLite.Path == "" {
		cfg.Ledger.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Ledger.SQLite.MaxOpenConns == 0 {
		cfg.Ledger.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Ledger.SQLite.MaxIdleConns == 0 {
		cfg.Ledger.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Ledger.SQLite.WALMode == nil {
		cfg.Ledger.SQLite.WALMode = Bool(DefaultSQLiteWALMode)
	}
	if cfg.Ledger.SQLite.BusyTimeout == 0 {
		cfg.Ledger.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Ledger.Retention.Days == 0 {
		cfg.Ledger.Retention.Days = DefaultRetentionDays
	}
	if cfg.Ledger.Retention.Schedule == "" {
		cfg.Ledger.Retention.Schedule = DefaultRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = Bool(DefaultMetricsEnabled)
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.Insecure == nil {
		cfg.Telemetry.Tracing.Insecure = Bool(DefaultTracingInsecure)
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.SampleRate == 0 {
		cfg.Telemetry.Tracing.SampleRate = DefaultTracingSample
	}
}
