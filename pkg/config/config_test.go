package config

import (
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Pricing.DefaultModel != DefaultPricingModel {
		t.Errorf("Expected default model %q, got %q", DefaultPricingModel, cfg.Pricing.DefaultModel)
	}
	if cfg.RateLimit.Requests != DefaultRateLimitRequests {
		t.Errorf("Expected %d requests, got %d", DefaultRateLimitRequests, cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window != DefaultRateLimitWindow {
		t.Errorf("Expected window %v, got %v", DefaultRateLimitWindow, cfg.RateLimit.Window)
	}
	if cfg.Ledger.Backend != "memory" {
		t.Errorf("Expected memory backend, got %q", cfg.Ledger.Backend)
	}
	if cfg.Ledger.Retention.Days != DefaultRetentionDays {
		t.Errorf("Expected %d retention days, got %d", DefaultRetentionDays, cfg.Ledger.Retention.Days)
	}
	if len(cfg.Budget.AlertThresholds) != 4 {
		t.Errorf("Expected 4 default alert thresholds, got %d", len(cfg.Budget.AlertThresholds))
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Telemetry.Logging)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.RateLimit.Requests = 5
	cfg.RateLimit.Window = 10 * time.Second
	cfg.Budget.AlertThresholds = []float64{0.9}

	ApplyDefaults(cfg)

	if cfg.RateLimit.Requests != 5 {
		t.Errorf("Explicit requests overwritten: %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window != 10*time.Second {
		t.Errorf("Explicit window overwritten: %v", cfg.RateLimit.Window)
	}
	if len(cfg.Budget.AlertThresholds) != 1 || cfg.Budget.AlertThresholds[0] != 0.9 {
		t.Errorf("Explicit thresholds overwritten: %v", cfg.Budget.AlertThresholds)
	}
}

func TestApplyDefaults_BooleansIndependentOfSiblings(t *testing.T) {
	// Setting a sibling field must not stop a boolean default from
	// resolving.
	cfg := &Config{}
	cfg.Ledger.SQLite.BusyTimeout = time.Second
	cfg.Telemetry.Metrics.Namespace = "custom"
	cfg.Telemetry.Tracing.ServiceName = "svc"

	ApplyDefaults(cfg)

	if cfg.Ledger.SQLite.WALMode == nil || !*cfg.Ledger.SQLite.WALMode {
		t.Error("Expected WAL mode default true with busy timeout set")
	}
	if cfg.Telemetry.Metrics.Enabled == nil || !*cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected metrics enabled default true with namespace set")
	}
	if cfg.Telemetry.Tracing.Insecure == nil || !*cfg.Telemetry.Tracing.Insecure {
		t.Error("Expected tracing insecure default true with service name set")
	}
}

func TestApplyDefaults_ExplicitFalseSurvives(t *testing.T) {
	cfg := &Config{}
	cfg.Ledger.SQLite.WALMode = Bool(false)
	cfg.Telemetry.Metrics.Enabled = Bool(false)
	cfg.Telemetry.Tracing.Insecure = Bool(false)

	ApplyDefaults(cfg)

	if *cfg.Ledger.SQLite.WALMode {
		t.Error("Explicit wal_mode=false overwritten")
	}
	if *cfg.Telemetry.Metrics.Enabled {
		t.Error("Explicit metrics.enabled=false overwritten")
	}
	if *cfg.Telemetry.Tracing.Insecure {
		t.Error("Explicit tracing.insecure=false overwritten")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Ledger.Backend = "postgres"
	cfg.RateLimit.Requests = -1
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("Expected 3 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestValidate_ExperimentWeights(t *testing.T) {
	tests := []struct {
		name    string
		exp     ExperimentConfig
		wantErr bool
	}{
		{
			name: "valid weights",
			exp: ExperimentConfig{
				Control: "v1",
				Variants: []VariantConfig{
					{Version: "v2", Weight: 0.3},
					{Version: "v3", Weight: 0.2},
				},
			},
			wantErr: false,
		},
		{
			name: "weights exceed one",
			exp: ExperimentConfig{
				Control: "v1",
				Variants: []VariantConfig{
					{Version: "v2", Weight: 0.7},
					{Version: "v3", Weight: 0.6},
				},
			},
			wantErr: true,
		},
		{
			name: "negative weight",
			exp: ExperimentConfig{
				Control:  "v1",
				Variants: []VariantConfig{{Version: "v2", Weight: -0.1}},
			},
			wantErr: true,
		},
		{
			name:    "missing control",
			exp:     ExperimentConfig{Variants: []VariantConfig{{Version: "v2", Weight: 0.5}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Experiments: map[string]ExperimentConfig{"greeting": tt.exp}}
			ApplyDefaults(cfg)

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidate_RetentionSchedule(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Ledger.Retention.Schedule = "not a cron expression"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for bad cron expression")
	}
	if !strings.Contains(err.Error(), "ledger.retention.schedule") {
		t.Errorf("Expected schedule error, got: %v", err)
	}
}

func TestValidate_AlertThresholdOrdering(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Budget.AlertThresholds = []float64{0.8, 0.5}

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for descending thresholds")
	}
}
