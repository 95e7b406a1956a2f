package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/ledger"
)

// Scope names for the calendar-period budgets. Attributed budgets use
// "owner:<id>" and "project:<id>".
const (
	ScopeDaily   = "daily"
	ScopeWeekly  = "weekly"
	ScopeMonthly = "monthly"
)

// Guard checks spending against configured budget limits and fires
// threshold alerts.
type Guard struct {
	config *config.BudgetConfig
	ledger *ledger.Ledger
	logger *slog.Logger

	// thresholds is the guard's own ascending copy of the configured
	// alert thresholds; the crossing walk below depends on the order.
	thresholds []float64

	mu      sync.Mutex
	alertFn AlertFunc
	// sent marks (scope, threshold) pairs whose alert already fired.
	sent map[string]bool

	// now is swappable for tests.
	now func() time.Time
}

// NewGuard creates a budget guard over the given ledger. Alert
// thresholds are copied and sorted ascending, so hand-built configs
// that bypass config validation still fire every crossed threshold.
func NewGuard(cfg *config.BudgetConfig, l *ledger.Ledger, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	thresholds := append([]float64(nil), cfg.AlertThresholds...)
	sort.Float64s(thresholds)
	return &Guard{
		config:     cfg,
		ledger:     l,
		logger:     logger.With("component", "budget"),
		thresholds: thresholds,
		sent:       make(map[string]bool),
		now:        time.Now,
	}
}

// OnAlert registers the alert callback. Only one callback is kept;
// registering replaces the previous one.
func (g *Guard) OnAlert(fn AlertFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.alertFn = fn
}

// Check evaluates all configured budgets for a call attributed to the
// given owner and project (either may be empty). It returns a decision
// covering every enforced scope and fires alerts for newly crossed
// thresholds.
func (g *Guard) Check(ctx context.Context, ownerID, projectID string) (*Decision, error) {
	statuses := make([]Status, 0, 5)

	for _, p := range []struct {
		scope  string
		period ledger.Period
		limit  float64
	}{
		{ScopeDaily, ledger.PeriodDaily, g.config.Daily},
		{ScopeWeekly, ledger.PeriodWeekly, g.config.Weekly},
		{ScopeMonthly, ledger.PeriodMonthly, g.config.Monthly},
	} {
		if p.limit <= 0 {
			continue
		}
		used, err := g.ledger.CurrentPeriodCost(ctx, p.period)
		if err != nil {
			return nil, fmt.Errorf("budget check %s: %w", p.scope, err)
		}
		statuses = append(statuses, makeStatus(p.scope, p.limit, used))
	}

	if g.config.PerOwner > 0 && ownerID != "" {
		used, err := g.ledger.OwnerCost(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("budget check owner %s: %w", ownerID, err)
		}
		statuses = append(statuses, makeStatus("owner:"+ownerID, g.config.PerOwner, used))
	}

	if g.config.PerProject > 0 && projectID != "" {
		used, err := g.ledger.ProjectCost(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("budget check project %s: %w", projectID, err)
		}
		statuses = append(statuses, makeStatus("project:"+projectID, g.config.PerProject, used))
	}

	decision := &Decision{Allowed: true, Statuses: statuses}
	for _, s := range statuses {
		if s.Exceeded {
			decision.Allowed = false
			decision.Exceeded = append(decision.Exceeded, s.Scope)
		}
	}

	g.fireAlerts(statuses)

	if !decision.Allowed {
		g.logger.Warn("budget exceeded", "scopes", decision.Exceeded)
	}
	return decision, nil
}

// ResetAlerts clears sent-alert markers so alerts can fire again. With an
// empty prefix all markers are cleared; otherwise only scopes matching
// the prefix are cleared (e.g. "daily", "owner:alice").
func (g *Guard) ResetAlerts(scopePrefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if scopePrefix == "" {
		g.sent = make(map[string]bool)
		return
	}
	for key := range g.sent {
		if strings.HasPrefix(key, scopePrefix) {
			delete(g.sent, key)
		}
	}
}

// fireAlerts marks newly crossed thresholds as sent and delivers their
// alerts. Markers are recorded under the lock; delivery happens outside
// it so a slow or panicking callback cannot stall checks or duplicate
// alerts.
func (g *Guard) fireAlerts(statuses []Status) {
	now := g.now()

	g.mu.Lock()
	fn := g.alertFn
	var pending []Alert
	for _, s := range statuses {
		for _, threshold := range g.thresholds {
			if s.PercentUsed < threshold {
				break
			}
			key := alertKey(s.Scope, threshold)
			if g.sent[key] {
				continue
			}
			g.sent[key] = true
			pending = append(pending, Alert{
				Scope:        s.Scope,
				Threshold:    threshold,
				CurrentUsage: s.Used,
				Limit:        s.Limit,
				Timestamp:    now,
			})
		}
	}
	g.mu.Unlock()

	for _, alert := range pending {
		g.logger.Warn("budget threshold crossed",
			"scope", alert.Scope,
			"threshold", alert.Threshold,
			"current_usage", alert.CurrentUsage,
			"limit", alert.Limit,
		)
		if fn != nil {
			g.deliver(fn, alert)
		}
	}
}

// deliver invokes the callback with panic recovery.
func (g *Guard) deliver(fn AlertFunc, alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("budget alert callback panicked",
				"scope", alert.Scope,
				"threshold", alert.Threshold,
				"panic", r,
			)
		}
	}()
	fn(alert)
}

func makeStatus(scope string, limit, used float64) Status {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Scope:       scope,
		Limit:       limit,
		Used:        used,
		Remaining:   remaining,
		PercentUsed: used / limit,
		Exceeded:    used >= limit,
	}
}

func alertKey(scope string, threshold float64) string {
	return fmt.Sprintf("%s@%g", scope, threshold)
}
