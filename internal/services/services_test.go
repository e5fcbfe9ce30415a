package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	alice = "alice"
	bob   = "bob"
)

var (
	foodID      = storage.DefaultCategoryID("Food & Dining")
	transportID = storage.DefaultCategoryID("Transportation")
)

// fixedClock pins "now" to noon UTC on the given day.
func fixedClock(year int, month time.Month, day int) Clock {
	return func() time.Time { return time.Date(year, month, day, 12, 0, 0, 0, time.UTC) }
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func ptr[T any](v T) *T { return &v }

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func addExpense(t *testing.T, s storage.Store, owner, category string, amount int64, date string) core.Expense {
	t.Helper()
	id, err := s.CreateExpense(context.Background(), core.Expense{
		OwnerID:       owner,
		CategoryID:    category,
		Amount:        cents(amount),
		Description:   "expense " + date,
		Date:          mustDate(t, date),
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	e, err := s.GetExpense(context.Background(), owner, id)
	require.NoError(t, err)
	return e
}

func addCategory(t *testing.T, s storage.Store, owner, name string) string {
	t.Helper()
	id, err := s.CreateCategory(context.Background(), core.Category{
		OwnerID: owner,
		Name:    name,
		Icon:    "🏷️",
		Color:   "#000000",
		Kind:    core.KindExpense,
	})
	require.NoError(t, err)
	return id
}

type fakeGenerator struct {
	reply string
	err   error

	prompts  []string
	history  []core.ChatMessage
	message  string
	snapshot string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) Chat(_ context.Context, history []core.ChatMessage, message, snapshot string) (string, error) {
	g.history, g.message, g.snapshot = history, message, snapshot
	return g.reply, g.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) actions() []amqp.ExpenseAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.ExpenseAction, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}
