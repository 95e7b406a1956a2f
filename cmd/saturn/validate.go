package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a Saturn configuration file.

All validation failures are reported together, not just the first one.
Environment overrides (SATURN_*) are applied before validation, so the
command checks the configuration exactly as the engine would see it.

Examples:
  # Validate the default config file
  saturn validate

  # Validate a specific file
  saturn validate --config deploy/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if err := config.Validate(cfg); err != nil {
		var validation config.ValidationError
		if errors.As(err, &validation) {
			fmt.Printf("Configuration %s is invalid:\n", cfgFile)
			for _, fieldErr := range validation.Errors {
				fmt.Printf("  - %s\n", fieldErr.Error())
			}
			return fmt.Errorf("%d validation error(s)", len(validation.Errors))
		}
		return cli.NewCommandError("validate", err)
	}

	fmt.Printf("Configuration %s is valid\n", cfgFile)
	if verbose {
		fmt.Printf("  ledger backend:   %s\n", cfg.Ledger.Backend)
		fmt.Printf("  pricing models:   %d\n", len(cfg.Pricing.Models))
		fmt.Printf("  experiments:      %d\n", len(cfg.Experiments))
		fmt.Printf("  rate limit:       %d per %s\n", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	return nil
}
