package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedSummaryData(t *testing.T, store storage.Store) {
	t.Helper()
	addExpense(t, store, alice, foodID, 20000, "2024-03-01")
	addExpense(t, store, alice, foodID, 10000, "2024-03-14")
	addExpense(t, store, alice, transportID, 10000, "2024-03-10")
	addExpense(t, store, alice, foodID, 20000, "2024-02-10")
	addExpense(t, store, bob, foodID, 99900, "2024-03-10")
}

func TestInsightService_Summary(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedSummaryData(t, store)
	svc := NewInsightService(store, nil, fixedClock(2024, 3, 15))

	sum, err := svc.Summary(ctx, alice, core.Monthly)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", sum.StartDate.String())
	assert.Equal(t, "2024-03-31", sum.EndDate.String())
	assert.Equal(t, int64(40000), sum.TotalSpent.Cents)
	assert.Zero(t, sum.TotalIncome.Cents)
	assert.Equal(t, int64(-40000), sum.NetBalance.Cents)

	require.Len(t, sum.TopCategories, 2)
	assert.Equal(t, "Food & Dining", sum.TopCategories[0].CategoryName)
	assert.Equal(t, 75.0, sum.TopCategories[0].Percentage)
	assert.Equal(t, 2, sum.TopCategories[0].TransactionCount)
	assert.Equal(t, 25.0, sum.TopCategories[1].Percentage)

	assert.Equal(t, int64(20000), sum.Comparison.PreviousPeriod.Cents)
	assert.Equal(t, 100.0, sum.Comparison.ChangePercentage)
	assert.Equal(t, core.TrendUp, sum.Comparison.Trend)

	yearly, err := svc.Summary(ctx, alice, core.Yearly)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), yearly.TotalSpent.Cents)
	assert.Zero(t, yearly.Comparison.ChangePercentage, "no spend last year")
	assert.Equal(t, core.TrendStable, yearly.Comparison.Trend)

	_, err = svc.Summary(ctx, alice, "daily")
	requireKind(t, err, core.ErrInvalidPeriod)
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, core.TrendUp, classifyTrend(5.01))
	assert.Equal(t, core.TrendStable, classifyTrend(5))
	assert.Equal(t, core.TrendStable, classifyTrend(-5))
	assert.Equal(t, core.TrendDown, classifyTrend(-5.01))
}

func TestInsightService_Tips(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedSummaryData(t, store)
	clock := fixedClock(2024, 3, 15)

	t.Run("parsed reply", func(t *testing.T) {
		gen := &fakeGenerator{reply: "- Type: warning\n- Title: Dining out\n- Description: Food is 75% of your spend.\n- Priority: high\n"}
		tips, err := NewInsightService(store, gen, clock).Tips(ctx, alice)
		require.NoError(t, err)
		require.Len(t, tips, 1)
		assert.Equal(t, core.InsightWarning, tips[0].Type)
		assert.Equal(t, "Dining out", tips[0].Title)
		assert.Equal(t, core.PriorityHigh, tips[0].Priority)

		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "- Total spent this month: $400.00")
		assert.Contains(t, gen.prompts[0], "Food & Dining: $300.00, Transportation: $100.00")
		assert.Contains(t, gen.prompts[0], "up (100.00%)")
	})

	fallback := map[string]*fakeGenerator{
		"generator error": {err: errors.New("quota exceeded")},
		"empty reply":     {reply: "I cannot help with that."},
	}
	for name, gen := range fallback {
		t.Run(name, func(t *testing.T) {
			tips, err := NewInsightService(store, gen, clock).Tips(ctx, alice)
			require.NoError(t, err)
			require.Len(t, tips, 2)
			assert.Equal(t, "Track Daily Expenses", tips[0].Title)
			assert.Equal(t, "Set Category Budgets", tips[1].Title)
		})
	}

	t.Run("no generator", func(t *testing.T) {
		tips, err := NewInsightService(store, nil, clock).Tips(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, tips, 2)
	})
}

func TestInsightService_Chat(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedSummaryData(t, store)
	clock := fixedClock(2024, 3, 15)

	gen := &fakeGenerator{reply: "Cut back on dining out."}
	svc := NewInsightService(store, gen, clock)
	history := []core.ChatMessage{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}

	reply, err := svc.Chat(ctx, alice, "How do I save?", history)
	require.NoError(t, err)
	assert.Equal(t, "Cut back on dining out.", reply.Message)
	assert.Equal(t, clock(), reply.Timestamp)
	assert.Equal(t, "How do I save?", gen.message)
	assert.Equal(t, history, gen.history)
	assert.Contains(t, gen.snapshot, "User's financial snapshot:")
	assert.Contains(t, gen.snapshot, "- Total spent this month: $400.00")

	_, err = svc.Chat(ctx, alice, "  ", nil)
	requireKind(t, err, core.ErrBadRequest)

	_, err = svc.Chat(ctx, alice, "hi", []core.ChatMessage{{Role: "system", Content: "x"}})
	requireKind(t, err, core.ErrBadRequest)

	failing := NewInsightService(store, &fakeGenerator{err: errors.New("boom")}, clock)
	_, err = failing.Chat(ctx, alice, "hi", nil)
	requireKind(t, err, core.ErrUpstream)

	_, err = NewInsightService(store, nil, clock).Chat(ctx, alice, "hi", nil)
	requireKind(t, err, core.ErrUpstream)
}

func TestInsightService_Predict(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock(2024, 3, 15)

	t.Run("no data", func(t *testing.T) {
		p, err := NewInsightService(storage.NewMemoryStore(), nil, clock).Predict(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "April 2024", p.Period)
		assert.Zero(t, p.PredictedAmount.Cents)
		assert.Equal(t, 0.75, p.Confidence)
		assert.NotNil(t, p.Breakdown)
		assert.Empty(t, p.Breakdown)
	})

	t.Run("trailing ninety days", func(t *testing.T) {
		store := storage.NewMemoryStore()
		addExpense(t, store, alice, foodID, 20000, "2024-03-01")
		addExpense(t, store, alice, transportID, 10000, "2024-01-10")
		addExpense(t, store, alice, transportID, 100, "2023-12-16")
		addExpense(t, store, alice, foodID, 50000, "2023-12-15")
		addExpense(t, store, alice, foodID, 50000, "2024-03-16")

		p, err := NewInsightService(store, nil, clock).Predict(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(10033), p.PredictedAmount.Cents)
		require.Len(t, p.Breakdown, 2)
		assert.Equal(t, "Food & Dining", p.Breakdown[0].CategoryName)
		assert.Equal(t, int64(6667), p.Breakdown[0].PredictedAmount.Cents)
		assert.Equal(t, int64(3367), p.Breakdown[1].PredictedAmount.Cents)
	})
}
