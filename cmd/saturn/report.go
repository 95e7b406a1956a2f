package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/telemetry/logging"
)

var reportFlags struct {
	start    string
	end      string
	model    string
	provider string
	owner    string
	project  string
	period   string
	forecast bool
	format   string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report recorded usage from the ledger",
	Long: `Aggregate usage records from the ledger and report spend broken down
by model, provider, owner, and project.

The ledger backend must be sqlite; the memory backend holds records only
for the lifetime of the process that wrote them.

Examples:
  # Full breakdown of everything on record
  saturn report

  # This month's spend plus a linear forecast
  saturn report --period monthly --forecast

  # One owner's spend in a time range, as JSON
  saturn report --owner alice --start 2026-03-01T00:00:00Z --format json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFlags.start, "start", "", "include records at or after this RFC3339 instant")
	reportCmd.Flags().StringVar(&reportFlags.end, "end", "", "include records before this RFC3339 instant")
	reportCmd.Flags().StringVar(&reportFlags.model, "model", "", "filter by model")
	reportCmd.Flags().StringVar(&reportFlags.provider, "provider", "", "filter by provider")
	reportCmd.Flags().StringVar(&reportFlags.owner, "owner", "", "filter by owner")
	reportCmd.Flags().StringVar(&reportFlags.project, "project", "", "filter by project")
	reportCmd.Flags().StringVar(&reportFlags.period, "period", "", "also report current period spend: daily, weekly, monthly")
	reportCmd.Flags().BoolVar(&reportFlags.forecast, "forecast", false, "include a linear month-end spend forecast")
	reportCmd.Flags().StringVar(&reportFlags.format, "format", "text", "output format: text, json")
}

// reportOutput is the JSON shape of the report command's output.
type reportOutput struct {
	Breakdown  *ledger.Breakdown `json:"breakdown"`
	Period     string            `json:"period,omitempty"`
	PeriodCost float64           `json:"period_cost,omitempty"`
	Forecast   float64           `json:"forecast,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("report", err)
	}
	if cfg.Ledger.Backend != "sqlite" {
		return cli.NewCommandError("report",
			fmt.Errorf("ledger backend is %q; reporting requires sqlite", cfg.Ledger.Backend))
	}

	logger := logging.NewNop().Slog()
	store, err := ledger.NewSQLiteStore(&cfg.Ledger.SQLite, logger)
	if err != nil {
		return cli.NewCommandError("report", err)
	}
	defer store.Close()

	prices := pricing.NewTable(&cfg.Pricing, logger)
	l := ledger.New(store, prices, logger)

	filter, err := buildFilter()
	if err != nil {
		return cli.NewCommandError("report", err)
	}

	ctx := context.Background()
	breakdown, err := l.Breakdown(ctx, filter)
	if err != nil {
		return cli.NewCommandError("report", err)
	}

	out := &reportOutput{Breakdown: breakdown}
	if reportFlags.period != "" {
		period := ledger.Period(reportFlags.period)
		switch period {
		case ledger.PeriodDaily, ledger.PeriodWeekly, ledger.PeriodMonthly:
		default:
			return cli.NewCommandError("report", fmt.Errorf("unknown period %q", reportFlags.period))
		}
		cost, err := l.CurrentPeriodCost(ctx, period)
		if err != nil {
			return cli.NewCommandError("report", err)
		}
		out.Period = reportFlags.period
		out.PeriodCost = cost
	}
	if reportFlags.forecast {
		forecast, err := l.ForecastMonthlySpend(ctx)
		if err != nil {
			return cli.NewCommandError("report", err)
		}
		out.Forecast = forecast
	}

	if cli.OutputFormat(reportFlags.format) == cli.FormatJSON {
		formatter, err := cli.NewFormatter(cli.FormatJSON)
		if err != nil {
			return cli.NewCommandError("report", err)
		}
		return formatter.FormatTo(os.Stdout, out)
	}

	printReport(out)
	return nil
}

// buildFilter translates the report flags into a ledger filter.
func buildFilter() (ledger.Filter, error) {
	filter := ledger.Filter{
		Model:     reportFlags.model,
		Provider:  reportFlags.provider,
		OwnerID:   reportFlags.owner,
		ProjectID: reportFlags.project,
	}
	if reportFlags.start != "" {
		start, err := time.Parse(time.RFC3339, reportFlags.start)
		if err != nil {
			return filter, fmt.Errorf("invalid --start: %w", err)
		}
		filter.Start = start
	}
	if reportFlags.end != "" {
		end, err := time.Parse(time.RFC3339, reportFlags.end)
		if err != nil {
			return filter, fmt.Errorf("invalid --end: %w", err)
		}
		filter.End = end
	}
	return filter, nil
}

func printReport(out *reportOutput) {
	b := out.Breakdown
	fmt.Printf("Records:       %d\n", b.Records)
	fmt.Printf("Total cost:    $%.4f\n", b.TotalCost)
	fmt.Printf("Input tokens:  %d\n", b.InputTokens)
	fmt.Printf("Output tokens: %d\n", b.OutputTokens)

	printCostMap("By model", b.ByModel)
	printCostMap("By provider", b.ByProvider)
	printCostMap("By owner", b.ByOwner)
	printCostMap("By project", b.ByProject)

	if out.Period != "" {
		fmt.Printf("\nCurrent %s spend: $%.4f\n", out.Period, out.PeriodCost)
	}
	if out.Forecast > 0 {
		fmt.Printf("Forecast month-end spend: $%.4f\n", out.Forecast)
	}
}

func printCostMap(title string, costs map[string]float64) {
	if len(costs) == 0 {
		return
	}
	keys := make([]string, 0, len(costs))
	for k := range costs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-24s $%.4f\n", k, costs[k])
	}
}
