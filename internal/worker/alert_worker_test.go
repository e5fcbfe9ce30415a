package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []core.BudgetStatus
	fail  error
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, st core.BudgetStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.calls = append(n.calls, st)
	return nil
}

type fixture struct {
	store    *storage.MemoryStore
	notifier *recordingNotifier
	worker   *AlertWorker
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    storage.NewMemoryStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	}
	budgets := services.NewBudgetService(f.store, func() time.Time { return f.now })
	logger := log.New(log.Config{Format: "text", Output: io.Discard})
	f.worker = NewAlertWorker(budgets, f.notifier, logger)
	return f
}

func (f *fixture) budget(t *testing.T, owner string, cents int64) string {
	t.Helper()
	id, err := f.store.CreateBudget(context.Background(), core.Budget{
		OwnerID:        owner,
		CategoryID:     storage.DefaultCategoryID("Food & Dining"),
		Amount:         core.Money{Cents: cents},
		Period:         core.Monthly,
		StartDate:      core.NewDate(2024, 1, 1),
		AlertThreshold: 80,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) spend(t *testing.T, owner string, cents int64, date core.Date) *amqp.ExpenseEvent {
	t.Helper()
	id, err := f.store.CreateExpense(context.Background(), core.Expense{
		OwnerID:       owner,
		CategoryID:    storage.DefaultCategoryID("Food & Dining"),
		Amount:        core.Money{Cents: cents},
		Description:   "Groceries",
		Date:          date,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	return amqp.NewExpenseEvent(owner, id, amqp.ActionCreated, date.String())
}

func TestAlertWorker_NotifiesOncePerLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budgetID := f.budget(t, "alice", 10000)

	ev := f.spend(t, "alice", 5000, core.NewDate(2024, 3, 2))
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, ev))
	assert.Empty(t, f.notifier.calls, "50% of budget must not alert")

	ev = f.spend(t, "alice", 3500, core.NewDate(2024, 3, 3))
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, ev))
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, budgetID, f.notifier.calls[0].Budget.ID)
	assert.True(t, f.notifier.calls[0].IsNearLimit)
	assert.False(t, f.notifier.calls[0].IsOverBudget)

	ev = f.spend(t, "alice", 500, core.NewDate(2024, 3, 4))
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, ev))
	assert.Len(t, f.notifier.calls, 1, "same level in the same period is not repeated")

	ev = f.spend(t, "alice", 2000, core.NewDate(2024, 3, 5))
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, ev))
	require.Len(t, f.notifier.calls, 2)
	assert.True(t, f.notifier.calls[1].IsOverBudget)
}

func TestAlertWorker_NewPeriodAlertsAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.budget(t, "alice", 10000)

	require.NoError(t, f.worker.HandleExpenseEvent(ctx, f.spend(t, "alice", 9000, core.NewDate(2024, 3, 2))))
	require.Len(t, f.notifier.calls, 1)

	f.now = time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, f.spend(t, "alice", 9000, core.NewDate(2024, 4, 2))))
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, core.NewDate(2024, 4, 1), f.notifier.calls[1].PeriodStart)
}

func TestAlertWorker_OtherOwnersUnaffected(t *testing.T) {
	f := newFixture(t)
	f.budget(t, "alice", 10000)

	ev := f.spend(t, "bob", 50000, core.NewDate(2024, 3, 2))
	require.NoError(t, f.worker.HandleExpenseEvent(context.Background(), ev))
	assert.Empty(t, f.notifier.calls)
}

func TestAlertWorker_FailedNotificationIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.budget(t, "alice", 10000)
	ev := f.spend(t, "alice", 9000, core.NewDate(2024, 3, 2))

	f.notifier.fail = errors.New("smtp down")
	err := f.worker.HandleExpenseEvent(ctx, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	f.notifier.fail = nil
	require.NoError(t, f.worker.HandleExpenseEvent(ctx, ev))
	assert.Len(t, f.notifier.calls, 1)
}
