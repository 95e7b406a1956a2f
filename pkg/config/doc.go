// Package config provides configuration loading, validation, and defaults
// for Mercator Saturn.
//
// Configuration is loaded from a YAML file, with defaults resolved once at
// construction time and optional environment variable overrides applied on
// top (SATURN_SECTION_FIELD naming). Validation collects all field errors
// rather than failing on the first one.
//
// # Usage
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or with environment overrides:
//	cfg, err := config.LoadWithEnvOverrides("config.yaml")
//
// # Sections
//
//   - pricing: model price table and default fallback model
//   - experiments: prompt experiment definitions
//   - budget: spending limits per period and ownership scope
//   - ratelimit: admission limiter window settings
//   - ledger: usage record storage backend and retention
//   - telemetry: logging, metrics, and tracing settings
package config
