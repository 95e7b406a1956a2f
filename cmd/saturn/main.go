// Mercator Saturn is a governance engine for metered LLM calls.
//
// It meters call costs against a model price table, enforces spending
// budgets and per-caller admission limits, and routes callers through
// weighted prompt experiments with significance testing.
//
// Usage:
//
//	# Validate a configuration file
//	saturn validate --config /path/to/config.yaml
//
//	# Report recorded usage from the ledger
//	saturn report --config /path/to/config.yaml --format json
//
//	# Prune usage records past the retention window
//	saturn prune --config /path/to/config.yaml
//
//	# Show version information
//	saturn version
package main

func main() {
	Execute()
}
