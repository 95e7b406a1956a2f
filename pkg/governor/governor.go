package governor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/experiment"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/ratelimit"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"
)

// Request describes one governed call.
type Request struct {
	// CallerID identifies the caller for admission limiting and variant
	// assignment. Required.
	CallerID string

	// Experiment is the experiment (and prompt) name. Empty skips
	// assignment and rendering; the wrapped call receives an empty
	// prompt.
	Experiment string

	// Variables are the template placeholder values.
	Variables map[string]string

	// OwnerID attributes the call's spend to an owner. Optional.
	OwnerID string

	// ProjectID attributes the call's spend to a project. Optional.
	ProjectID string

	// Metadata is arbitrary annotation copied onto the usage record.
	Metadata map[string]string
}

// ModelResponse is what the wrapped model call reports back for
// metering.
type ModelResponse struct {
	// Model is the model identifier the call was served by. Required.
	Model string

	// InputTokens is the prompt token count.
	InputTokens int

	// OutputTokens is the completion token count.
	OutputTokens int
}

// CallFunc is the wrapped model call. It receives the rendered prompt
// and returns token usage for metering.
type CallFunc func(ctx context.Context, prompt string) (*ModelResponse, error)

// Result is the outcome of one governed call.
type Result struct {
	// Version is the assigned prompt version, empty without an
	// experiment.
	Version string

	// Prompt is the rendered prompt passed to the call.
	Prompt string

	// Response is the model response as reported by the call.
	Response *ModelResponse

	// Record is the appended usage record.
	Record *ledger.Record

	// Duration is the wrapped call's execution time.
	Duration time.Duration
}

// Governor runs the governance pipeline around model calls.
type Governor struct {
	engine  *experiment.Engine
	ledger  *ledger.Ledger
	guard   *budget.Guard
	limiter *ratelimit.Limiter
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
}

// New assembles a governor from its components. The pricing gap handler
// and budget alert callback are wired to the metrics collector here, so
// gaps and alerts are counted no matter which path triggers them.
func New(
	engine *experiment.Engine,
	prices *pricing.Table,
	l *ledger.Ledger,
	guard *budget.Guard,
	limiter *ratelimit.Limiter,
	collector *metrics.Collector,
	tracer *tracing.Tracer,
	logger *slog.Logger,
) *Governor {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Governor{
		engine:  engine,
		ledger:  l,
		guard:   guard,
		limiter: limiter,
		metrics: collector,
		tracer:  tracer,
		logger:  logger.With("component", "governor"),
	}

	if collector != nil {
		prices.OnGap(func(gap pricing.Gap) {
			collector.RecordPricingGap(gap.Model)
		})
		guard.OnAlert(func(alert budget.Alert) {
			collector.RecordBudgetAlert(alert.Scope)
		})
	}
	return g
}

// Execute runs one governed call through the full pipeline.
func (g *Governor) Execute(ctx context.Context, req Request, call CallFunc) (*Result, error) {
	if req.CallerID == "" {
		return nil, fmt.Errorf("caller id must not be empty")
	}

	var span trace.Span
	if g.tracer != nil {
		ctx, span = g.tracer.Start(ctx, "governor.execute")
		defer span.End()
		span.SetAttributes(
			attribute.String(tracing.AttrCallerID, req.CallerID),
		)
	}

	if err := g.admit(ctx, req); err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rejected")
		}
		return nil, err
	}
	g.limiter.Record(req.CallerID)

	version, prompt, err := g.assign(req)
	if err != nil {
		return nil, err
	}
	if span != nil && req.Experiment != "" {
		span.SetAttributes(tracing.AssignmentAttributes(req.Experiment, version, req.CallerID)...)
	}

	start := time.Now()
	response, err := call(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "call failed")
		}
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if response == nil || response.Model == "" {
		return nil, fmt.Errorf("model call returned no usable response")
	}

	record, err := g.meter(ctx, req, version, response, duration)
	if err != nil {
		return nil, err
	}
	if span != nil {
		span.SetAttributes(tracing.CallAttributes(
			record.Model, record.Provider,
			record.InputTokens, record.OutputTokens, record.Cost,
		)...)
	}

	return &Result{
		Version:  version,
		Prompt:   prompt,
		Response: response,
		Record:   record,
		Duration: duration,
	}, nil
}

// RecordConversion counts a successful outcome for the caller's
// assigned version. Call it when the downstream signal arrives (click,
// acceptance, task completion). Callers without an assignment are a
// no-op.
func (g *Governor) RecordConversion(experimentName, callerID string) error {
	version, err := g.engine.RecordConversion(experimentName, callerID)
	if err != nil {
		return err
	}
	if version != "" && g.metrics != nil {
		g.metrics.RecordConversion(experimentName, version)
	}
	return nil
}

// WaitAndExecute blocks for an admission slot instead of rejecting, then
// runs the remaining pipeline. Budget rejections still fail immediately.
func (g *Governor) WaitAndExecute(ctx context.Context, req Request, call CallFunc) (*Result, error) {
	if req.CallerID == "" {
		return nil, fmt.Errorf("caller id must not be empty")
	}
	if err := g.limiter.WaitForSlot(ctx, req.CallerID); err != nil {
		return nil, fmt.Errorf("waiting for admission slot: %w", err)
	}

	// The slot is already consumed; run the rest of the pipeline with
	// the budget check only.
	decision, err := g.guard.Check(ctx, req.OwnerID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		g.rejectBudget(decision)
		return nil, &BudgetError{Scopes: decision.Exceeded}
	}

	version, prompt, err := g.assign(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := call(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if response == nil || response.Model == "" {
		return nil, fmt.Errorf("model call returned no usable response")
	}

	record, err := g.meter(ctx, req, version, response, duration)
	if err != nil {
		return nil, err
	}
	return &Result{
		Version:  version,
		Prompt:   prompt,
		Response: response,
		Record:   record,
		Duration: duration,
	}, nil
}

// admit runs the admission and budget checks.
func (g *Governor) admit(ctx context.Context, req Request) error {
	check := g.limiter.Check(req.CallerID)
	if !check.Allowed {
		if g.metrics != nil {
			g.metrics.RecordAdmissionRejection(req.CallerID)
		}
		g.logger.Warn("call rejected by admission limiter",
			"caller_id", req.CallerID,
			"reset_in_ms", check.ResetIn.Milliseconds(),
		)
		return &AdmissionError{Key: req.CallerID, ResetIn: check.ResetIn}
	}

	decision, err := g.guard.Check(ctx, req.OwnerID, req.ProjectID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		g.rejectBudget(decision)
		return &BudgetError{Scopes: decision.Exceeded}
	}
	return nil
}

// assign resolves the caller's version and renders the template. The
// impression is counted by the engine at resolution time.
func (g *Governor) assign(req Request) (version, prompt string, err error) {
	if req.Experiment == "" {
		return "", "", nil
	}

	p, err := g.engine.GetPrompt(req.Experiment, req.CallerID, req.Variables)
	if err != nil {
		return "", "", err
	}
	if g.metrics != nil {
		g.metrics.RecordImpression(req.Experiment, p.Version)
	}
	return p.Version, p.Content, nil
}

// meter appends the usage record and updates metrics and experiment
// counters.
func (g *Governor) meter(ctx context.Context, req Request, version string, response *ModelResponse, duration time.Duration) (*ledger.Record, error) {
	usage := ledger.Usage{
		Model:        response.Model,
		InputTokens:  response.InputTokens,
		OutputTokens: response.OutputTokens,
		OwnerID:      req.OwnerID,
		ProjectID:    req.ProjectID,
		Metadata:     req.Metadata,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		usage.TraceID = sc.TraceID().String()
	}

	record, err := g.ledger.Record(ctx, usage)
	if err != nil {
		return nil, fmt.Errorf("recording usage: %w", err)
	}

	if g.metrics != nil {
		g.metrics.RecordCall(record.Provider, record.Model,
			record.InputTokens, record.OutputTokens, record.Cost, duration)
	}

	if req.Experiment != "" {
		sample := experiment.Sample{
			LatencyMs: float64(duration.Milliseconds()),
			Tokens:    int64(response.InputTokens + response.OutputTokens),
			Cost:      record.Cost,
		}
		if _, err := g.engine.RecordMetrics(req.Experiment, req.CallerID, sample); err != nil {
			// The call already happened and is metered; a lifecycle race
			// here is not worth failing the caller over.
			g.logger.Warn("failed to record experiment metrics",
				"experiment", req.Experiment,
				"caller_id", req.CallerID,
				"error", err,
			)
		}
	}
	return record, nil
}

// rejectBudget records rejection metrics for every exceeded scope.
func (g *Governor) rejectBudget(decision *budget.Decision) {
	for _, scope := range decision.Exceeded {
		if g.metrics != nil {
			g.metrics.RecordBudgetRejection(scope)
		}
	}
	g.logger.Warn("call rejected by budget limits", "scopes", decision.Exceeded)
}
