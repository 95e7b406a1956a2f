package experiment

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/registry"
)

// versionStats accumulates per-version counters. Averages are running
// means updated incrementally so no per-call history is kept; latency
// and token averages advance on their own sample count, independent of
// impressions.
type versionStats struct {
	impressions  int64
	conversions  int64
	samples      int64
	avgLatencyMs float64
	avgTokens    float64
	totalCost    float64
}

// experiment is the engine's internal experiment state. Each experiment
// carries its own lock so hot experiments do not contend with each other.
type experiment struct {
	mu          sync.Mutex
	name        string
	control     string
	variants    []Variant
	state       State
	graduatedTo string
	createdAt   time.Time
	metadata    map[string]string

	// order is the declared version order (control first), kept stable
	// across graduation so snapshots retain variant history.
	order []string

	// assignments caches each caller's resolved version. Once cached,
	// the cached value is authoritative over re-derivation, so weight
	// changes never move an already-bucketed caller.
	assignments map[string]string

	stats map[string]*versionStats
}

// Engine manages prompt experiments: variant assignment, metric
// collection, significance testing, and lifecycle transitions.
type Engine struct {
	mu          sync.RWMutex
	experiments map[string]*experiment
	registry    *registry.Registry
	logger      *slog.Logger
}

// NewEngine creates an experiment engine. When a registry is provided,
// experiment versions are validated against it at creation time and
// GetPrompt can render content.
func NewEngine(reg *registry.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		experiments: make(map[string]*experiment),
		registry:    reg,
		logger:      logger.With("component", "experiment"),
	}
}

// LoadConfig creates experiments from configuration. Experiment names
// are processed in sorted order so failures are deterministic.
func (e *Engine) LoadConfig(cfgs map[string]config.ExperimentConfig) error {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := cfgs[name]
		variants := make([]Variant, len(cfg.Variants))
		for i, v := range cfg.Variants {
			variants[i] = Variant{Version: v.Version, Weight: v.Weight}
		}
		if err := e.Create(name, cfg.Control, variants, cfg.Metadata); err != nil {
			return err
		}
	}
	return nil
}

// Create defines a new active experiment. The experiment name doubles as
// the prompt name; control and variant versions must be registered for
// it when the engine has a registry. Referenced versions are validated
// here once and never re-validated.
func (e *Engine) Create(name, control string, variants []Variant, metadata map[string]string) error {
	if name == "" {
		return &ConfigError{Name: name, Reason: "name must not be empty"}
	}
	if control == "" {
		return &ConfigError{Name: name, Reason: "control version must not be empty"}
	}

	var totalWeight float64
	seen := map[string]bool{control: true}
	for _, v := range variants {
		if v.Version == "" {
			return &ConfigError{Name: name, Reason: "variant version must not be empty"}
		}
		if seen[v.Version] {
			return &ConfigError{Name: name, Reason: fmt.Sprintf("duplicate version %q", v.Version)}
		}
		seen[v.Version] = true
		if v.Weight <= 0 || v.Weight > 1 {
			return &ConfigError{Name: name,
				Reason: fmt.Sprintf("variant %q weight %v outside (0, 1]", v.Version, v.Weight)}
		}
		totalWeight += v.Weight
	}
	if totalWeight > 1 {
		return &ConfigError{Name: name,
			Reason: fmt.Sprintf("variant weights sum to %v, exceeding 1", totalWeight)}
	}

	if e.registry != nil {
		for version := range seen {
			if _, err := e.registry.Get(name, version); err != nil {
				return &UnknownVersionError{Name: name, Version: version}
			}
		}
	}

	exp := &experiment{
		name:        name,
		control:     control,
		variants:    append([]Variant(nil), variants...),
		state:       StateActive,
		createdAt:   time.Now(),
		metadata:    metadata,
		order:       make([]string, 0, len(variants)+1),
		assignments: make(map[string]string),
		stats:       make(map[string]*versionStats, len(variants)+1),
	}
	exp.order = append(exp.order, control)
	exp.stats[control] = &versionStats{}
	for _, v := range variants {
		exp.order = append(exp.order, v.Version)
		exp.stats[v.Version] = &versionStats{}
	}

	e.mu.Lock()
	if _, exists := e.experiments[name]; exists {
		e.mu.Unlock()
		return &ConfigError{Name: name, Reason: "already exists"}
	}
	e.experiments[name] = exp
	e.mu.Unlock()

	e.logger.Info("experiment created",
		"experiment", name,
		"control", control,
		"variants", len(variants),
		"variant_weight", totalWeight,
	)
	return nil
}

// Assign returns the version a caller should receive and caches it.
// Resolution is linearizable per (caller, experiment): concurrent first
// resolutions for the same pair observe a single cached winner. Stopped
// experiments assign control; graduated experiments assign the
// graduated version.
func (e *Engine) Assign(name, callerID string) (string, error) {
	exp, err := e.get(name)
	if err != nil {
		return "", err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()
	return exp.resolveLocked(callerID), nil
}

// GetPrompt resolves a caller's version, counts the impression, and
// returns the content: rendered through the registry when variables are
// supplied, the raw template otherwise.
func (e *Engine) GetPrompt(name, callerID string, vars map[string]string) (*Prompt, error) {
	if e.registry == nil {
		return nil, &ConfigError{Name: name, Reason: "engine has no registry to render from"}
	}
	exp, err := e.get(name)
	if err != nil {
		return nil, err
	}

	exp.mu.Lock()
	version := exp.resolveLocked(callerID)
	exp.stats[version].impressions++
	exp.mu.Unlock()

	if vars == nil {
		v, err := e.registry.Get(name, version)
		if err != nil {
			return nil, err
		}
		return &Prompt{Version: version, Content: v.Template}, nil
	}

	content, err := e.registry.Render(name, version, vars)
	if err != nil {
		return nil, err
	}
	return &Prompt{Version: version, Content: content}, nil
}

// RecordConversion counts one successful outcome for the caller's
// assigned version. Callers without an assignment are a no-op and
// return an empty version.
func (e *Engine) RecordConversion(name, callerID string) (string, error) {
	exp, err := e.get(name)
	if err != nil {
		return "", err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	version, ok := exp.assignments[callerID]
	if !ok {
		return "", nil
	}
	exp.stats[version].conversions++
	return version, nil
}

// RecordMetrics folds one call's observed latency, tokens, and cost
// into the caller's assigned version. Callers without an assignment are
// a no-op and return an empty version.
func (e *Engine) RecordMetrics(name, callerID string, sample Sample) (string, error) {
	exp, err := e.get(name)
	if err != nil {
		return "", err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	version, ok := exp.assignments[callerID]
	if !ok {
		return "", nil
	}
	stats := exp.stats[version]
	stats.samples++
	n := float64(stats.samples)
	stats.avgLatencyMs += (sample.LatencyMs - stats.avgLatencyMs) / n
	stats.avgTokens += (float64(sample.Tokens) - stats.avgTokens) / n
	stats.totalCost += sample.Cost
	return version, nil
}

// Snapshot returns the experiment's current state and metrics in
// declared version order, control first.
func (e *Engine) Snapshot(name string) (*Snapshot, error) {
	exp, err := e.get(name)
	if err != nil {
		return nil, err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	snap := &Snapshot{
		Name:        exp.name,
		State:       exp.state,
		Control:     exp.control,
		Variants:    append([]Variant(nil), exp.variants...),
		GraduatedTo: exp.graduatedTo,
		CreatedAt:   exp.createdAt,
		Metadata:    exp.metadata,
		Metrics:     make([]VariantMetrics, 0, len(exp.order)),
	}
	for _, version := range exp.order {
		snap.Metrics = append(snap.Metrics, exp.metricsFor(version))
	}
	return snap, nil
}

// List returns all experiment names, sorted lexically.
func (e *Engine) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.experiments))
	for name := range e.experiments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Winner returns the version with the highest conversion rate among
// versions with at least minImpressions. The second result is false
// when no version qualifies. Ties keep the earlier version in declared
// order.
func (e *Engine) Winner(name string, minImpressions int64) (string, bool, error) {
	exp, err := e.get(name)
	if err != nil {
		return "", false, err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	var best string
	var bestRate float64
	found := false
	for _, version := range exp.order {
		m := exp.metricsFor(version)
		if m.Impressions < minImpressions {
			continue
		}
		if !found || m.ConversionRate > bestRate {
			best = version
			bestRate = m.ConversionRate
			found = true
		}
	}
	return best, found, nil
}

// IsSignificant reports whether any variant with at least minImpressions
// differs from control at 95% confidence, by a two-proportion pooled
// z-test. Control must itself meet the sample floor.
func (e *Engine) IsSignificant(name string, minImpressions int64) (bool, error) {
	exp, err := e.get(name)
	if err != nil {
		return false, err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	control := exp.stats[exp.control]
	if control == nil || control.impressions < minImpressions {
		return false, nil
	}
	for _, v := range exp.variants {
		stats := exp.stats[v.Version]
		if stats.impressions < minImpressions {
			continue
		}
		z := zScore(stats.conversions, stats.impressions, control.conversions, control.impressions)
		if z > zCritical || z < -zCritical {
			return true, nil
		}
	}
	return false, nil
}

// Compare tests a variant's conversion rate against control with a
// two-proportion pooled z-test.
func (e *Engine) Compare(name, variant string) (*Comparison, error) {
	exp, err := e.get(name)
	if err != nil {
		return nil, err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	stats, ok := exp.stats[variant]
	if !ok {
		return nil, &UnknownVersionError{Name: name, Version: variant}
	}
	control := exp.stats[exp.control]

	z := zScore(stats.conversions, stats.impressions, control.conversions, control.impressions)
	return &Comparison{
		Variant:     variant,
		Control:     exp.control,
		ZScore:      z,
		Significant: z > zCritical || z < -zCritical,
	}, nil
}

// Stop halts an active experiment: traffic routes to control, cached
// assignments are cleared, metrics are kept.
func (e *Engine) Stop(name string) error {
	return e.transition(name, "stop", StateActive, func(exp *experiment) {
		exp.state = StateStopped
		exp.assignments = make(map[string]string)
	})
}

// Restart resumes a stopped experiment. Callers re-resolve on their
// next request.
func (e *Engine) Restart(name string) error {
	return e.transition(name, "restart", StateStopped, func(exp *experiment) {
		exp.state = StateActive
	})
}

// Graduate permanently pins all traffic to the given version: it
// becomes control, the variant list is cleared, and the state is final.
func (e *Engine) Graduate(name, version string) error {
	exp, err := e.get(name)
	if err != nil {
		return err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	if exp.state == StateGraduated {
		return &StateError{Name: name, State: exp.state, Op: "graduate"}
	}
	if _, ok := exp.stats[version]; !ok {
		return &UnknownVersionError{Name: name, Version: version}
	}

	exp.state = StateGraduated
	exp.graduatedTo = version
	exp.control = version
	exp.variants = nil
	exp.assignments = make(map[string]string)

	e.logger.Info("experiment graduated",
		"experiment", name,
		"version", version,
	)
	return nil
}

// Reset clears cached assignments and zeroes all collected metrics.
// Graduated experiments cannot be reset.
func (e *Engine) Reset(name string) error {
	exp, err := e.get(name)
	if err != nil {
		return err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	if exp.state == StateGraduated {
		return &StateError{Name: name, State: exp.state, Op: "reset"}
	}
	exp.assignments = make(map[string]string)
	for version := range exp.stats {
		exp.stats[version] = &versionStats{}
	}
	return nil
}

// get looks up an experiment under the engine's read lock.
func (e *Engine) get(name string) (*experiment, error) {
	e.mu.RLock()
	exp, ok := e.experiments[name]
	e.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return exp, nil
}

// transition applies a state change that is only legal from one state.
func (e *Engine) transition(name, op string, from State, apply func(*experiment)) error {
	exp, err := e.get(name)
	if err != nil {
		return err
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()

	if exp.state != from {
		return &StateError{Name: name, State: exp.state, Op: op}
	}
	apply(exp)

	e.logger.Info("experiment state changed",
		"experiment", name,
		"operation", op,
		"state", exp.state,
	)
	return nil
}

// resolveLocked returns the caller's version, deriving and caching an
// assignment on first resolution. Stopped experiments serve control and
// graduated experiments serve the graduated version, neither consulting
// the cache. Caller must hold the experiment lock.
func (exp *experiment) resolveLocked(callerID string) string {
	switch exp.state {
	case StateGraduated:
		return exp.graduatedTo
	case StateStopped:
		return exp.control
	}

	if version, ok := exp.assignments[callerID]; ok {
		return version
	}

	h := bucket(callerID, exp.name)
	version := exp.control
	var cumulative float64
	for _, v := range exp.variants {
		cumulative += v.Weight
		if h < cumulative {
			version = v.Version
			break
		}
	}
	exp.assignments[callerID] = version
	return version
}

// metricsFor snapshots one version's counters. Caller must hold the
// experiment lock.
func (exp *experiment) metricsFor(version string) VariantMetrics {
	stats := exp.stats[version]
	m := VariantMetrics{
		Version:      version,
		Impressions:  stats.impressions,
		Conversions:  stats.conversions,
		AvgLatencyMs: stats.avgLatencyMs,
		AvgTokens:    stats.avgTokens,
		TotalCost:    stats.totalCost,
	}
	if stats.impressions > 0 {
		m.ConversionRate = float64(stats.conversions) / float64(stats.impressions)
	}
	return m
}
