package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/pricing"
)

func testPrices() *pricing.Table {
	return pricing.NewTable(&config.PricingConfig{
		DefaultModel: "gpt-4o-mini",
		Models: map[string]config.ModelPriceConfig{
			"gpt-4":       {Input: 0.03, Output: 0.06},
			"gpt-4o-mini": {Input: 0.00015, Output: 0.0006},
			"claude-sonnet-4-5": {
				Input:  0.003,
				Output: 0.015,
			},
		},
	}, nil)
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(NewMemoryStore(), testPrices(), nil)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLedger_Record(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	record, err := l.Record(ctx, Usage{
		Model:        "gpt-4",
		InputTokens:  1000,
		OutputTokens: 500,
		OwnerID:      "alice",
		ProjectID:    "search",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if record.ID == "" {
		t.Error("Expected generated record ID")
	}
	if record.Provider != "openai" {
		t.Errorf("Expected provider openai, got %q", record.Provider)
	}
	if !almostEqual(record.Cost, 0.06) {
		t.Errorf("Expected cost 0.06, got %v", record.Cost)
	}
	if record.Timestamp.IsZero() {
		t.Error("Expected record timestamp to be set")
	}
}

func TestLedger_RecordRequiresModel(t *testing.T) {
	l := testLedger(t)

	if _, err := l.Record(context.Background(), Usage{InputTokens: 10}); err == nil {
		t.Error("Expected error for empty model")
	}
}

func TestLedger_RecordWithPricingGap(t *testing.T) {
	l := testLedger(t)

	// Unpriced model: fallback cost is recorded, not an error.
	record, err := l.Record(context.Background(), Usage{
		Model:        "totally-custom-model",
		InputTokens:  1000,
		OutputTokens: 1000,
	})
	if err != nil {
		t.Fatalf("Record failed on pricing gap: %v", err)
	}
	if !almostEqual(record.Cost, 0.00015+0.0006) {
		t.Errorf("Expected fallback cost, got %v", record.Cost)
	}
	if record.Provider != pricing.ProviderUnknown {
		t.Errorf("Expected unknown provider, got %q", record.Provider)
	}
}

func TestLedger_Breakdown(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	calls := []Usage{
		{Model: "gpt-4", InputTokens: 1000, OutputTokens: 0, OwnerID: "alice", ProjectID: "search"},
		{Model: "gpt-4", InputTokens: 1000, OutputTokens: 0, OwnerID: "bob", ProjectID: "search"},
		{Model: "claude-sonnet-4-5", InputTokens: 1000, OutputTokens: 0, OwnerID: "alice"},
	}
	for _, u := range calls {
		if _, err := l.Record(ctx, u); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	b, err := l.Breakdown(ctx, Filter{})
	if err != nil {
		t.Fatalf("Breakdown failed: %v", err)
	}

	if b.Records != 3 {
		t.Errorf("Expected 3 records, got %d", b.Records)
	}
	if !almostEqual(b.TotalCost, 0.03+0.03+0.003) {
		t.Errorf("Unexpected total cost %v", b.TotalCost)
	}
	if !almostEqual(b.ByModel["gpt-4"], 0.06) {
		t.Errorf("Unexpected gpt-4 cost %v", b.ByModel["gpt-4"])
	}
	if !almostEqual(b.ByProvider["anthropic"], 0.003) {
		t.Errorf("Unexpected anthropic cost %v", b.ByProvider["anthropic"])
	}
	if !almostEqual(b.ByOwner["alice"], 0.03+0.003) {
		t.Errorf("Unexpected alice cost %v", b.ByOwner["alice"])
	}
	if !almostEqual(b.ByProject["search"], 0.06) {
		t.Errorf("Unexpected search cost %v", b.ByProject["search"])
	}
	if b.InputTokens != 3000 {
		t.Errorf("Expected 3000 input tokens, got %d", b.InputTokens)
	}
}

func TestLedger_BreakdownFiltered(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	for i, model := range []string{"gpt-4", "claude-sonnet-4-5"} {
		_, err := l.Record(ctx, Usage{
			Model:       model,
			InputTokens: 1000,
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	b, err := l.Breakdown(ctx, Filter{Provider: "anthropic"})
	if err != nil {
		t.Fatalf("Breakdown failed: %v", err)
	}
	if b.Records != 1 || !almostEqual(b.TotalCost, 0.003) {
		t.Errorf("Expected 1 anthropic record at 0.003, got %d at %v", b.Records, b.TotalCost)
	}

	// Time window excluding the second record.
	b, err = l.Breakdown(ctx, Filter{Start: base, End: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("Breakdown failed: %v", err)
	}
	if b.Records != 1 || b.ByModel["gpt-4"] == 0 {
		t.Errorf("Expected only the gpt-4 record in window, got %d records", b.Records)
	}
}

func TestLedger_CurrentPeriodCost(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	// Wednesday March 11 2026, 15:00 local.
	now := time.Date(2026, 3, 11, 15, 0, 0, 0, time.Local)
	l.now = func() time.Time { return now }

	records := []struct {
		ts     time.Time
		tokens int
	}{
		{now.Add(-1 * time.Hour), 1000},                       // today
		{time.Date(2026, 3, 9, 8, 0, 0, 0, time.Local), 1000}, // Monday this week
		{time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local), 1000}, // earlier this month
		{time.Date(2026, 2, 20, 8, 0, 0, 0, time.Local), 1000}, // last month
	}
	for _, r := range records {
		_, err := l.Record(ctx, Usage{Model: "gpt-4", InputTokens: r.tokens, Timestamp: r.ts})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	tests := []struct {
		period Period
		want   float64
	}{
		{PeriodDaily, 0.03},
		{PeriodWeekly, 0.06},
		{PeriodMonthly, 0.09},
	}
	for _, tt := range tests {
		got, err := l.CurrentPeriodCost(ctx, tt.period)
		if err != nil {
			t.Fatalf("CurrentPeriodCost(%s) failed: %v", tt.period, err)
		}
		if !almostEqual(got, tt.want) {
			t.Errorf("CurrentPeriodCost(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestLedger_OwnerAndProjectCost(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	_, err := l.Record(ctx, Usage{Model: "gpt-4", InputTokens: 1000, OwnerID: "alice", ProjectID: "search"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_, err = l.Record(ctx, Usage{Model: "gpt-4", InputTokens: 2000, OwnerID: "bob", ProjectID: "search"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := l.OwnerCost(ctx, "alice")
	if err != nil {
		t.Fatalf("OwnerCost failed: %v", err)
	}
	if !almostEqual(got, 0.03) {
		t.Errorf("OwnerCost(alice) = %v, want 0.03", got)
	}

	got, err = l.ProjectCost(ctx, "search")
	if err != nil {
		t.Fatalf("ProjectCost failed: %v", err)
	}
	if !almostEqual(got, 0.09) {
		t.Errorf("ProjectCost(search) = %v, want 0.09", got)
	}
}

func TestLedger_ForecastMonthlySpend(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	// 10 full days into a 30-day month, $30 spent so far: forecast $90.
	now := time.Date(2026, 4, 11, 0, 0, 0, 0, time.Local)
	l.now = func() time.Time { return now }

	// 1000 input tokens of gpt-4 is $0.03; 1,000,000 is $30.
	_, err := l.Record(ctx, Usage{
		Model:       "gpt-4",
		InputTokens: 1000000,
		Timestamp:   time.Date(2026, 4, 5, 12, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	forecast, err := l.ForecastMonthlySpend(ctx)
	if err != nil {
		t.Fatalf("ForecastMonthlySpend failed: %v", err)
	}
	if !almostEqual(forecast, 90.0) {
		t.Errorf("Expected forecast 90.0, got %v", forecast)
	}
}

func TestLedger_ForecastEarlyMonthIsZero(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	now := time.Date(2026, 4, 1, 6, 0, 0, 0, time.Local)
	l.now = func() time.Time { return now }

	_, err := l.Record(ctx, Usage{
		Model:       "gpt-4",
		InputTokens: 1000000,
		Timestamp:   now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	forecast, err := l.ForecastMonthlySpend(ctx)
	if err != nil {
		t.Fatalf("ForecastMonthlySpend failed: %v", err)
	}
	if forecast != 0 {
		t.Errorf("Expected zero forecast under 24h into month, got %v", forecast)
	}
}

func TestLedger_Cleanup(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, testPrices(), nil)
	ctx := context.Background()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.Local)
	l.now = func() time.Time { return now }

	timestamps := []time.Time{
		now.AddDate(0, 0, -100),
		now.AddDate(0, 0, -91),
		now.AddDate(0, 0, -89),
		now.AddDate(0, 0, -1),
	}
	for _, ts := range timestamps {
		if _, err := l.Record(ctx, Usage{Model: "gpt-4", InputTokens: 100, Timestamp: ts}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	removed, err := l.Cleanup(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 records removed, got %d", removed)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 records remaining, got %d", store.Len())
	}

	// A repeated run with the same cutoff removes nothing.
	removed, err = l.Cleanup(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 0 || store.Len() != 2 {
		t.Errorf("Expected no-op cleanup, removed=%d len=%d", removed, store.Len())
	}
}

func TestMemoryStore_QueryOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	// Append out of order; Query must return timestamp ascending.
	for _, offset := range []int{3, 1, 2} {
		err := store.Append(ctx, &Record{
			ID:        "r" + string(rune('0'+offset)),
			Timestamp: base.Add(time.Duration(offset) * time.Hour),
			Model:     "gpt-4",
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			t.Errorf("Records out of order at index %d", i)
		}
	}
}

func TestMemoryStore_AppendIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := &Record{ID: "r1", Timestamp: time.Now(), Model: "gpt-4", Cost: 1.0}
	if err := store.Append(ctx, original); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Mutating the caller's record must not affect the stored copy.
	original.Cost = 99.0

	records, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if records[0].Cost != 1.0 {
		t.Errorf("Stored record mutated through caller reference: cost=%v", records[0].Cost)
	}
}
