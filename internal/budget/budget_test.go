package budget

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, time.UTC)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestTrackerAdd(t *testing.T) {
	tracker := NewTracker(Config{DailyLimit: 1000, WarnAt: 0.8}, nil, nil)

	ok := tracker.Add(500)
	if !ok {
		t.Error("expected Add to return true when under limit")
	}

	used, limit := tracker.Usage()
	if used != 500 {
		t.Errorf("expected 500 used, got %d", used)
	}
	if limit != 1000 {
		t.Errorf("expected 1000 limit, got %d", limit)
	}
}

func TestTrackerExceedsLimit(t *testing.T) {
	exceededCalled := false
	tracker := NewTracker(Config{DailyLimit: 1000, WarnAt: 0.8}, nil, func(used, limit int) {
		exceededCalled = true
	})

	tracker.Add(500)
	ok := tracker.Add(600)
	if ok {
		t.Error("expected Add to return false when exceeding limit")
	}
	if !exceededCalled {
		t.Error("expected onExceeded callback to be called")
	}
	if tracker.Allow() {
		t.Error("expected Allow to refuse once the limit is reached")
	}
}

func TestTrackerWarnOnlyOnce(t *testing.T) {
	warnCount := 0
	tracker := NewTracker(Config{DailyLimit: 1000, WarnAt: 0.8}, func(used, limit int) {
		warnCount++
	}, nil)

	tracker.Add(700)
	if warnCount != 0 {
		t.Error("expected no warning at 70%")
	}

	tracker.Add(100)
	tracker.Add(50)
	tracker.Add(50)

	if warnCount != 1 {
		t.Errorf("expected warning to be called once, got %d", warnCount)
	}
}

func TestTrackerResetsAtMidnight(t *testing.T) {
	tracker := NewTracker(Config{DailyLimit: 1000, WarnAt: 0.8}, nil, nil)
	tracker.Add(1200)

	tomorrow := time.Now().Add(24 * time.Hour)
	tracker.now = func() time.Time { return tomorrow }

	if !tracker.Allow() {
		t.Error("expected a fresh budget on a new day")
	}
	if used, _ := tracker.Usage(); used != 0 {
		t.Errorf("expected usage reset, got %d", used)
	}
}

func TestNilTrackerAllows(t *testing.T) {
	var tracker *Tracker

	if !tracker.Allow() || !tracker.Record("claude", "x", 10, 10) {
		t.Error("nil tracker should never block")
	}
}

func TestTrackerRecord(t *testing.T) {
	store := openStore(t)

	tracker := NewTracker(Config{DailyLimit: 100000, WarnAt: 0.8}, nil, nil)
	tracker.SetStore(store)

	if !tracker.Record("claude", "claude-3-5-sonnet-20241022", 1000, 100) {
		t.Error("expected Record to return true")
	}

	used, _ := tracker.Usage()
	if used != 1100 {
		t.Errorf("expected 1100 used, got %d", used)
	}

	tokens, err := store.TodayTokens()
	if err != nil {
		t.Fatalf("failed to get today tokens: %v", err)
	}
	if tokens != 1100 {
		t.Errorf("expected 1100 tokens in store, got %d", tokens)
	}
}

func TestSetStoreLoadsTodayUsage(t *testing.T) {
	store := openStore(t)
	store.Record("claude", "claude-3-5-sonnet-20241022", 900, 0)

	tracker := NewTracker(Config{DailyLimit: 1000, WarnAt: 0.8}, nil, nil)
	tracker.SetStore(store)

	if used, _ := tracker.Usage(); used != 900 {
		t.Errorf("expected 900 carried over, got %d", used)
	}
}

func TestStoreSummaryAndBreakdown(t *testing.T) {
	store := openStore(t)

	store.Record("claude", "claude-3-5-sonnet-20241022", 1000, 100)
	store.Record("openai", "gpt-4o", 500, 50)
	store.Record("claude", "claude-3-5-sonnet-20241022", 2000, 200)

	summary, err := store.Today()
	if err != nil {
		t.Fatalf("failed to get today summary: %v", err)
	}

	if summary.TotalRequests != 3 {
		t.Errorf("expected 3 requests, got %d", summary.TotalRequests)
	}
	if summary.TotalInputTokens != 3500 {
		t.Errorf("expected 3500 input tokens, got %d", summary.TotalInputTokens)
	}
	if summary.TotalOutputTokens != 350 {
		t.Errorf("expected 350 output tokens, got %d", summary.TotalOutputTokens)
	}

	models, err := store.TodayByModel()
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(models) != 2 || models[0].Model != "claude-3-5-sonnet-20241022" || models[0].Requests != 2 {
		t.Errorf("unexpected breakdown %+v", models)
	}
}

func TestStoreExcludesOtherDays(t *testing.T) {
	store := openStore(t)

	store.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	store.Record("claude", "claude-3-5-sonnet-20241022", 1000, 0)
	store.now = time.Now

	tokens, err := store.TodayTokens()
	if err != nil {
		t.Fatal(err)
	}
	if tokens != 0 {
		t.Errorf("expected old usage excluded, got %d", tokens)
	}
}

func TestPricingKnownModels(t *testing.T) {
	tests := []struct {
		model  string
		input  int
		output int
		want   float64
	}{
		{"claude-3-5-sonnet-20241022", 1000000, 0, 3.00},
		{"claude-3-5-sonnet-20241022", 0, 1000000, 15.00},
		{"gpt-4o", 1000000, 0, 2.50},
		{"gpt-4o", 0, 1000000, 10.00},
	}

	for _, tt := range tests {
		cost := CalculateCost(tt.model, tt.input, tt.output)
		if cost != tt.want {
			t.Errorf("CalculateCost(%s, %d, %d) = %f, want %f", tt.model, tt.input, tt.output, cost, tt.want)
		}
	}
}

func TestPricingOllamaFree(t *testing.T) {
	if cost := CalculateCost("qwen2.5:7b", 1000000, 1000000); cost != 0 {
		t.Errorf("expected local models to be free, got %f", cost)
	}
}

func TestPricingUnknownModel(t *testing.T) {
	if cost := CalculateCost("mystery", 1000000, 0); cost != 5.00 {
		t.Errorf("expected conservative estimate, got %f", cost)
	}
}
