package pricing

import (
	"log/slog"
	"strings"
	"sync"

	"mercator-hq/saturn/pkg/config"
)

// Price contains per-1K-token prices for a single model in USD.
type Price struct {
	// InputPer1K is the cost per 1000 input (prompt) tokens.
	InputPer1K float64

	// OutputPer1K is the cost per 1000 output (completion) tokens.
	OutputPer1K float64
}

// Gap describes a pricing table miss: cost was computed for a model absent
// from the table, using the default model's pricing as a fallback.
// A gap is a monitoring signal, not an error; the computed cost is still
// recorded.
type Gap struct {
	// Model is the unpriced model the cost was requested for.
	Model string

	// FallbackModel is the default model whose pricing was used instead.
	FallbackModel string
}

// GapHandler observes pricing gaps. Handlers must be fast and must not
// block; they run on the metering path.
type GapHandler func(Gap)

// Table is a thread-safe price table mapping model identifiers to
// per-1K-token prices.
type Table struct {
	mu           sync.RWMutex
	prices       map[string]Price
	defaultModel string
	onGap        GapHandler

	logger *slog.Logger
}

// NewTable creates a price table from configuration. The default model's
// pricing is the fallback for unpriced models; if the default model itself
// is unpriced, fallback cost is zero (the gap still fires).
func NewTable(cfg *config.PricingConfig, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Table{
		prices:       make(map[string]Price, len(cfg.Models)),
		defaultModel: cfg.DefaultModel,
		logger:       logger.With("component", "pricing"),
	}
	for model, p := range cfg.Models {
		t.prices[model] = Price{InputPer1K: p.Input, OutputPer1K: p.Output}
	}
	return t
}

// SetPrice sets or replaces the price for a single model.
func (t *Table) SetPrice(model string, inputPer1K, outputPer1K float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[model] = Price{InputPer1K: inputPer1K, OutputPer1K: outputPer1K}
}

// Update replaces the whole table and default model (hot-reload support).
// This is thread-safe and can be called while the table is in use.
func (t *Table) Update(models map[string]config.ModelPriceConfig, defaultModel string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prices = make(map[string]Price, len(models))
	for model, p := range models {
		t.prices[model] = Price{InputPer1K: p.Input, OutputPer1K: p.Output}
	}
	if defaultModel != "" {
		t.defaultModel = defaultModel
	}
}

// OnGap registers a handler invoked for every pricing gap. Only one
// handler is kept; registering replaces the previous one.
func (t *Table) OnGap(fn GapHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGap = fn
}

// Lookup returns the price for a model: exact match first, then the
// longest registered prefix match. The second return reports whether a
// price was found.
func (t *Table) Lookup(model string) (Price, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(model)
}

// DefaultModel returns the configured fallback model.
func (t *Table) DefaultModel() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultModel
}

// ComputeCost computes the cost in USD for a call to the given model.
// On a table miss it falls back to the default model's pricing and reports
// gap=true; metering callers record the cost either way.
func (t *Table) ComputeCost(model string, inputTokens, outputTokens int) (cost float64, gap bool) {
	t.mu.RLock()
	price, ok := t.lookupLocked(model)
	defaultModel := t.defaultModel
	onGap := t.onGap
	if !ok {
		price, _ = t.lookupLocked(defaultModel)
	}
	t.mu.RUnlock()

	cost = tokenCost(inputTokens, price.InputPer1K) + tokenCost(outputTokens, price.OutputPer1K)

	if !ok {
		t.logger.Warn("pricing gap, using default model pricing",
			"model", model,
			"fallback_model", defaultModel,
		)
		if onGap != nil {
			onGap(Gap{Model: model, FallbackModel: defaultModel})
		}
		return cost, true
	}
	return cost, false
}

// lookupLocked resolves a model price without fallback.
// Caller must hold at least a read lock.
func (t *Table) lookupLocked(model string) (Price, bool) {
	if price, ok := t.prices[model]; ok {
		return price, true
	}

	// Longest prefix match so dated releases inherit base model pricing.
	var (
		bestLen   int
		bestPrice Price
		found     bool
	)
	for pattern, price := range t.prices {
		if strings.HasPrefix(model, pattern) && len(pattern) > bestLen {
			bestLen = len(pattern)
			bestPrice = price
			found = true
		}
	}
	return bestPrice, found
}

// tokenCost calculates the cost for a given number of tokens.
// pricePer1K is the cost per 1000 tokens in USD.
func tokenCost(tokens int, pricePer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}
	return (float64(tokens) / 1000.0) * pricePer1K
}
