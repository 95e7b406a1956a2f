package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/pricing"
)

// Ledger records metered call usage and answers aggregate queries over
// the record set.
type Ledger struct {
	store  Store
	prices *pricing.Table
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a ledger over the given store and price table.
func New(store Store, prices *pricing.Table, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:  store,
		prices: prices,
		logger: logger.With("component", "ledger"),
		now:    time.Now,
	}
}

// Record computes the cost of one metered call and appends an immutable
// usage record. The returned record includes the computed cost and the
// provider derived from the model identifier. A pricing gap does not fail
// the call; the fallback cost is recorded.
func (l *Ledger) Record(ctx context.Context, usage Usage) (*Record, error) {
	if usage.Model == "" {
		return nil, fmt.Errorf("usage model must not be empty")
	}

	cost, gap := l.prices.ComputeCost(usage.Model, usage.InputTokens, usage.OutputTokens)

	timestamp := usage.Timestamp
	if timestamp.IsZero() {
		timestamp = l.now()
	}

	record := &Record{
		ID:           uuid.New().String(),
		Timestamp:    timestamp,
		Model:        usage.Model,
		Provider:     pricing.ProviderForModel(usage.Model),
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Cost:         cost,
		OwnerID:      usage.OwnerID,
		ProjectID:    usage.ProjectID,
		TraceID:      usage.TraceID,
		Metadata:     usage.Metadata,
	}

	if err := l.store.Append(ctx, record); err != nil {
		return nil, err
	}

	l.logger.Debug("usage recorded",
		"record_id", record.ID,
		"model", record.Model,
		"provider", record.Provider,
		"input_tokens", record.InputTokens,
		"output_tokens", record.OutputTokens,
		"cost", record.Cost,
		"pricing_gap", gap,
	)
	return record, nil
}

// Query returns all records matching the filter, ordered by timestamp
// ascending.
func (l *Ledger) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	return l.store.Query(ctx, filter)
}

// Breakdown aggregates matched records by model, provider, owner, and
// project in a single pass.
func (l *Ledger) Breakdown(ctx context.Context, filter Filter) (*Breakdown, error) {
	records, err := l.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		ByModel:    make(map[string]float64),
		ByProvider: make(map[string]float64),
		ByOwner:    make(map[string]float64),
		ByProject:  make(map[string]float64),
	}
	for _, r := range records {
		b.TotalCost += r.Cost
		b.Records++
		b.InputTokens += r.InputTokens
		b.OutputTokens += r.OutputTokens
		b.ByModel[r.Model] += r.Cost
		b.ByProvider[r.Provider] += r.Cost
		if r.OwnerID != "" {
			b.ByOwner[r.OwnerID] += r.Cost
		}
		if r.ProjectID != "" {
			b.ByProject[r.ProjectID] += r.Cost
		}
	}
	return b, nil
}

// CurrentPeriodCost returns the total spend within the calendar period
// containing now.
func (l *Ledger) CurrentPeriodCost(ctx context.Context, period Period) (float64, error) {
	now := l.now()
	return l.store.SumCost(ctx, Filter{
		Start: PeriodStart(period, now),
		End:   PeriodEnd(period, now),
	})
}

// OwnerCost returns the all-time attributed spend for an owner.
func (l *Ledger) OwnerCost(ctx context.Context, ownerID string) (float64, error) {
	return l.store.SumCost(ctx, Filter{OwnerID: ownerID})
}

// ProjectCost returns the all-time attributed spend for a project.
func (l *Ledger) ProjectCost(ctx context.Context, projectID string) (float64, error) {
	return l.store.SumCost(ctx, Filter{ProjectID: projectID})
}

// ForecastMonthlySpend projects the current month's total spend by linear
// extrapolation of month-to-date spend over fractional elapsed days.
// It returns 0 when less than a full day of the month has elapsed; a
// smaller sample extrapolates to noise.
func (l *Ledger) ForecastMonthlySpend(ctx context.Context) (float64, error) {
	now := l.now()
	monthStart := PeriodStart(PeriodMonthly, now)

	elapsed := now.Sub(monthStart)
	if elapsed < 24*time.Hour {
		return 0, nil
	}

	spend, err := l.store.SumCost(ctx, Filter{Start: monthStart, End: now})
	if err != nil {
		return 0, err
	}

	elapsedDays := elapsed.Hours() / 24.0
	return spend / elapsedDays * float64(daysInMonth(now)), nil
}

// Cleanup removes records older than the cutoff and returns the number
// removed.
func (l *Ledger) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	removed, err := l.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		l.logger.Info("usage records pruned",
			"removed", removed,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return removed, nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
