package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/ledger/retention"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/telemetry/logging"
)

var pruneFlags struct {
	days int
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune usage records past the retention window",
	Long: `Delete usage records older than the retention window in a single run.

This is the same pruning the retention scheduler performs on its cron
schedule, exposed for manual runs and external schedulers.

Examples:
  # Prune with the configured retention window
  saturn prune

  # Override the retention window for this run
  saturn prune --days 30`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().IntVar(&pruneFlags.days, "days", 0, "override retention days for this run (0 uses config)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	if cfg.Ledger.Backend != "sqlite" {
		return cli.NewCommandError("prune",
			fmt.Errorf("ledger backend is %q; pruning requires sqlite", cfg.Ledger.Backend))
	}

	logger := logging.NewNop().Slog()
	if verbose {
		lg, err := logging.New(logging.Config{Level: "debug", Format: "text"})
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		logger = lg.Slog()
	}

	store, err := ledger.NewSQLiteStore(&cfg.Ledger.SQLite, logger)
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	defer store.Close()

	l := ledger.New(store, pricing.NewTable(&cfg.Pricing, logger), logger)

	retentionCfg := cfg.Ledger.Retention
	if pruneFlags.days > 0 {
		retentionCfg.Days = pruneFlags.days
	}

	pruner := retention.NewPruner(l, &retentionCfg, logger)
	removed, err := pruner.Prune(context.Background())
	if err != nil {
		return cli.NewCommandError("prune", err)
	}

	fmt.Printf("Pruned %d usage record(s) older than %d days\n", removed, retentionCfg.Days)
	return nil
}
