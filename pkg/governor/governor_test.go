package governor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/experiment"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/ratelimit"
	"mercator-hq/saturn/pkg/registry"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"
)

type testStack struct {
	governor *Governor
	ledger   *ledger.Ledger
	engine   *experiment.Engine
	limiter  *ratelimit.Limiter
}

func newTestStack(t *testing.T, budgetCfg *config.BudgetConfig, rateCfg *config.RateLimitConfig) *testStack {
	t.Helper()

	reg := registry.New(nil)
	reg.Register("summarize", "v1", "Summarize {{text}} briefly.", nil)
	reg.Register("summarize", "v2", "Summarize {{text}} in two sentences.", nil)

	engine := experiment.NewEngine(reg, nil)
	if err := engine.Create("summarize", "v1",
		[]experiment.Variant{{Version: "v2", Weight: 1.0}}, nil); err != nil {
		t.Fatalf("Create experiment failed: %v", err)
	}

	prices := pricing.NewTable(&config.PricingConfig{
		DefaultModel: "gpt-4o-mini",
		Models: map[string]config.ModelPriceConfig{
			"gpt-4":       {Input: 0.03, Output: 0.06},
			"gpt-4o-mini": {Input: 0.00015, Output: 0.0006},
		},
	}, nil)

	l := ledger.New(ledger.NewMemoryStore(), prices, nil)

	if budgetCfg == nil {
		budgetCfg = &config.BudgetConfig{}
	}
	if budgetCfg.AlertThresholds == nil {
		budgetCfg.AlertThresholds = append([]float64(nil), config.DefaultAlertThresholds...)
	}
	guard := budget.NewGuard(budgetCfg, l, nil)

	if rateCfg == nil {
		rateCfg = &config.RateLimitConfig{Requests: 100, Window: time.Minute}
	}
	limiter := ratelimit.NewLimiter(rateCfg, nil)

	collector := metrics.NewCollector(
		&config.MetricsConfig{Enabled: config.Bool(true), Namespace: "mercator", Subsystem: "saturn"}, nil)

	tracer, err := tracing.New(&tracing.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("tracing.New failed: %v", err)
	}

	return &testStack{
		governor: New(engine, prices, l, guard, limiter, collector, tracer, nil),
		ledger:   l,
		engine:   engine,
		limiter:  limiter,
	}
}

func echoCall(model string, in, out int) CallFunc {
	return func(_ context.Context, prompt string) (*ModelResponse, error) {
		return &ModelResponse{Model: model, InputTokens: in, OutputTokens: out}, nil
	}
}

func TestExecute_FullPipeline(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	ctx := context.Background()

	var gotPrompt string
	result, err := stack.governor.Execute(ctx, Request{
		CallerID:   "caller-1",
		Experiment: "summarize",
		Variables:  map[string]string{"text": "the quarterly report"},
		OwnerID:    "alice",
		ProjectID:  "reports",
	}, func(_ context.Context, prompt string) (*ModelResponse, error) {
		gotPrompt = prompt
		return &ModelResponse{Model: "gpt-4", InputTokens: 1000, OutputTokens: 500}, nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Variant weight 1.0 routes every caller to v2.
	if result.Version != "v2" {
		t.Errorf("Version = %q, want v2", result.Version)
	}
	if gotPrompt != "Summarize the quarterly report in two sentences." {
		t.Errorf("Unexpected rendered prompt %q", gotPrompt)
	}
	if result.Record == nil || result.Record.Cost != 0.06 {
		t.Errorf("Unexpected record: %+v", result.Record)
	}
	if result.Record.OwnerID != "alice" || result.Record.ProjectID != "reports" {
		t.Errorf("Attribution not carried onto record: %+v", result.Record)
	}

	// The impression landed on the assigned version.
	snap, err := stack.engine.Snapshot("summarize")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	for _, m := range snap.Metrics {
		want := int64(0)
		if m.Version == "v2" {
			want = 1
		}
		if m.Impressions != want {
			t.Errorf("Impressions for %q = %d, want %d", m.Version, m.Impressions, want)
		}
	}
}

func TestExecute_WithoutExperiment(t *testing.T) {
	stack := newTestStack(t, nil, nil)

	result, err := stack.governor.Execute(context.Background(), Request{
		CallerID: "caller-1",
	}, echoCall("gpt-4", 100, 100))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Version != "" || result.Prompt != "" {
		t.Errorf("Expected no assignment, got version=%q prompt=%q", result.Version, result.Prompt)
	}
	if result.Record == nil {
		t.Error("Expected usage record without experiment")
	}
}

func TestExecute_AdmissionRejection(t *testing.T) {
	stack := newTestStack(t, nil, &config.RateLimitConfig{Requests: 1, Window: time.Hour})
	ctx := context.Background()

	if _, err := stack.governor.Execute(ctx, Request{CallerID: "caller-1"}, echoCall("gpt-4", 10, 10)); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	_, err := stack.governor.Execute(ctx, Request{CallerID: "caller-1"}, echoCall("gpt-4", 10, 10))
	var admission *AdmissionError
	if !errors.As(err, &admission) {
		t.Fatalf("Expected AdmissionError, got %v", err)
	}
	if admission.Key != "caller-1" || admission.ResetIn <= 0 {
		t.Errorf("Unexpected AdmissionError: %+v", admission)
	}

	// A different caller is unaffected.
	if _, err := stack.governor.Execute(ctx, Request{CallerID: "caller-2"}, echoCall("gpt-4", 10, 10)); err != nil {
		t.Errorf("Other caller rejected: %v", err)
	}
}

func TestExecute_BudgetRejection(t *testing.T) {
	stack := newTestStack(t, &config.BudgetConfig{Monthly: 0.05}, nil)
	ctx := context.Background()

	// First call costs $0.06 and blows the $0.05 monthly budget.
	if _, err := stack.governor.Execute(ctx, Request{CallerID: "caller-1"}, echoCall("gpt-4", 1000, 500)); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	_, err := stack.governor.Execute(ctx, Request{CallerID: "caller-2"}, echoCall("gpt-4", 10, 10))
	var budgetErr *BudgetError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("Expected BudgetError, got %v", err)
	}
	if len(budgetErr.Scopes) != 1 || budgetErr.Scopes[0] != budget.ScopeMonthly {
		t.Errorf("Unexpected scopes %v", budgetErr.Scopes)
	}
}

func TestExecute_CallFailureIsNotMetered(t *testing.T) {
	stack := newTestStack(t, nil, nil)

	_, err := stack.governor.Execute(context.Background(), Request{CallerID: "caller-1"},
		func(context.Context, string) (*ModelResponse, error) {
			return nil, fmt.Errorf("upstream timeout")
		})
	if err == nil {
		t.Fatal("Expected error from failing call")
	}

	records, err := stack.ledger.Query(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no usage records for failed call, got %d", len(records))
	}
}

func TestExecute_RequiresCallerID(t *testing.T) {
	stack := newTestStack(t, nil, nil)

	if _, err := stack.governor.Execute(context.Background(), Request{}, echoCall("gpt-4", 1, 1)); err == nil {
		t.Error("Expected error for empty caller id")
	}
}

func TestExecute_MissingVariableFailsBeforeCall(t *testing.T) {
	stack := newTestStack(t, nil, nil)

	called := false
	_, err := stack.governor.Execute(context.Background(), Request{
		CallerID:   "caller-1",
		Experiment: "summarize",
		Variables:  map[string]string{"wrong": "x"},
	}, func(context.Context, string) (*ModelResponse, error) {
		called = true
		return &ModelResponse{Model: "gpt-4"}, nil
	})

	var missing *registry.MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingVariableError, got %v", err)
	}
	if called {
		t.Error("Model call must not run with an unrenderable prompt")
	}
}

func TestRecordConversion(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	ctx := context.Background()

	result, err := stack.governor.Execute(ctx, Request{
		CallerID:   "caller-1",
		Experiment: "summarize",
		Variables:  map[string]string{"text": "x"},
	}, echoCall("gpt-4", 100, 100))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if err := stack.governor.RecordConversion("summarize", "caller-1"); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}
	// Unassigned callers are a no-op, not an error.
	if err := stack.governor.RecordConversion("summarize", "stranger"); err != nil {
		t.Fatalf("RecordConversion for unassigned caller failed: %v", err)
	}

	snap, _ := stack.engine.Snapshot("summarize")
	for _, m := range snap.Metrics {
		want := int64(0)
		if m.Version == result.Version {
			want = 1
		}
		if m.Conversions != want {
			t.Errorf("Conversions for %q = %d, want %d", m.Version, m.Conversions, want)
		}
	}
}

func TestWaitAndExecute(t *testing.T) {
	stack := newTestStack(t, nil, &config.RateLimitConfig{Requests: 1, Window: 100 * time.Millisecond})
	ctx := context.Background()

	if _, err := stack.governor.WaitAndExecute(ctx, Request{CallerID: "caller-1"}, echoCall("gpt-4", 10, 10)); err != nil {
		t.Fatalf("First WaitAndExecute failed: %v", err)
	}

	// Second call blocks until the window frees instead of rejecting.
	start := time.Now()
	if _, err := stack.governor.WaitAndExecute(ctx, Request{CallerID: "caller-1"}, echoCall("gpt-4", 10, 10)); err != nil {
		t.Fatalf("Second WaitAndExecute failed: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Expected WaitAndExecute to block for a slot")
	}
}
