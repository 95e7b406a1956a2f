package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/ledger"
)

// Pruner enforces the retention window on the usage ledger.
type Pruner struct {
	ledger    *ledger.Ledger
	config    *config.RetentionConfig
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner over the given ledger.
func NewPruner(l *ledger.Ledger, cfg *config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}

	pruner := &Pruner{
		ledger: l,
		config: cfg,
		logger: logger.With("component", "ledger.retention"),
	}
	pruner.scheduler = NewScheduler(pruner, logger)
	return pruner
}

// Prune deletes usage records older than the retention window and returns
// the number removed. With retention disabled (0 days) it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.config.Days <= 0 {
		p.logger.Debug("retention disabled, skipping prune")
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.Days)
	removed, err := p.ledger.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed == 0 {
		p.logger.Debug("no usage records pruned", "retention_days", p.config.Days)
	}
	return removed, nil
}

// Start begins scheduled pruning. Call during application startup.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running job to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning run, or nil
// when the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
