// Package metrics exposes Prometheus metrics for the governance engine:
// call costs, experiment activity, budget alerts, admission rejections,
// and pricing gaps.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/saturn/pkg/config"
)

// Collector registers and records all Saturn metrics on a single
// Prometheus registry. With metrics disabled every record call is a
// no-op, so call sites never guard on configuration themselves.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	// Cost metrics
	costTotal    *prometheus.CounterVec
	costPerCall  *prometheus.HistogramVec
	tokensTotal  *prometheus.CounterVec
	pricingGaps  *prometheus.CounterVec
	callDuration *prometheus.HistogramVec

	// Experiment metrics
	impressions *prometheus.CounterVec
	conversions *prometheus.CounterVec

	// Governance metrics
	budgetAlerts        *prometheus.CounterVec
	budgetRejections    *prometheus.CounterVec
	admissionRejections *prometheus.CounterVec
}

// NewCollector creates a collector registered on the given registry.
// A nil registry gets a fresh private one; use Registry to expose it.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	c := &Collector{
		enabled:  cfg.Enabled == nil || *cfg.Enabled,
		registry: registry,

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_total",
				Help:      "Total metered cost in USD by provider and model",
			},
			[]string{"provider", "model"},
		),
		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_call",
				Help:      "Cost distribution per metered call in USD",
				Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"provider", "model"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total token count by provider, model, and direction",
			},
			[]string{"provider", "model", "direction"},
		),
		pricingGaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pricing_gaps_total",
				Help:      "Cost computations that fell back to default model pricing",
			},
			[]string{"model"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Metered call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "model"},
		),

		impressions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "experiment_impressions_total",
				Help:      "Variant assignments by experiment and version",
			},
			[]string{"experiment", "version"},
		),
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "experiment_conversions_total",
				Help:      "Successful outcomes by experiment and version",
			},
			[]string{"experiment", "version"},
		),

		budgetAlerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_alerts_total",
				Help:      "Budget threshold alerts by scope",
			},
			[]string{"scope"},
		),
		budgetRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_rejections_total",
				Help:      "Calls rejected by budget limits, by scope",
			},
			[]string{"scope"},
		),
		admissionRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "admission_rejections_total",
				Help:      "Calls rejected by the admission limiter, by key",
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(
		c.costTotal,
		c.costPerCall,
		c.tokensTotal,
		c.pricingGaps,
		c.callDuration,
		c.impressions,
		c.conversions,
		c.budgetAlerts,
		c.budgetRejections,
		c.admissionRejections,
	)
	return c
}

// Registry returns the underlying Prometheus registry for exposition.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordCall records the cost, tokens, and duration of one metered call.
func (c *Collector) RecordCall(provider, model string, inputTokens, outputTokens int, cost float64, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.costTotal.WithLabelValues(provider, model).Add(cost)
	c.costPerCall.WithLabelValues(provider, model).Observe(cost)
	c.tokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	c.tokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	if duration > 0 {
		c.callDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	}
}

// RecordPricingGap counts a cost computation that used fallback pricing.
func (c *Collector) RecordPricingGap(model string) {
	if !c.enabled {
		return
	}
	c.pricingGaps.WithLabelValues(model).Inc()
}

// RecordImpression counts one variant assignment.
func (c *Collector) RecordImpression(experiment, version string) {
	if !c.enabled {
		return
	}
	c.impressions.WithLabelValues(experiment, version).Inc()
}

// RecordConversion counts one successful outcome.
func (c *Collector) RecordConversion(experiment, version string) {
	if !c.enabled {
		return
	}
	c.conversions.WithLabelValues(experiment, version).Inc()
}

// RecordBudgetAlert counts a fired budget threshold alert.
func (c *Collector) RecordBudgetAlert(scope string) {
	if !c.enabled {
		return
	}
	c.budgetAlerts.WithLabelValues(scope).Inc()
}

// RecordBudgetRejection counts a call rejected by a budget limit.
func (c *Collector) RecordBudgetRejection(scope string) {
	if !c.enabled {
		return
	}
	c.budgetRejections.WithLabelValues(scope).Inc()
}

// RecordAdmissionRejection counts a call rejected by the limiter.
func (c *Collector) RecordAdmissionRejection(key string) {
	if !c.enabled {
		return
	}
	c.admissionRejections.WithLabelValues(key).Inc()
}
