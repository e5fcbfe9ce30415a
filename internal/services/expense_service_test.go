package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestExpenseService_CreateGetPublishes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, pub)

	e, err := svc.Create(ctx, alice, core.Expense{
		CategoryID:    foodID,
		Amount:        cents(1250),
		Description:   "Lunch",
		Date:          mustDate(t, "2024-03-02"),
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, alice, e.OwnerID)
	require.NotNil(t, e.Category)
	assert.Equal(t, "Food & Dining", e.Category.Name)

	got, err := svc.Get(ctx, alice, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = svc.Get(ctx, bob, e.ID)
	requireKind(t, err, core.ErrNotFound)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, amqp.ActionCreated, ev.Action)
	assert.Equal(t, alice, ev.OwnerID)
	assert.Equal(t, e.ID, ev.ExpenseID)
	assert.Equal(t, "2024-03-02", ev.Date)
}

func TestExpenseService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewExpenseService(store, nil)
	bobs := addCategory(t, store, bob, "Bob stuff")

	valid := core.Expense{Amount: cents(100), Description: "x", Date: mustDate(t, "2024-03-02"), PaymentMethod: "cash"}

	tests := []struct {
		name   string
		mutate func(e *core.Expense)
		kind   error
	}{
		{"zero amount", func(e *core.Expense) { e.Amount = cents(0) }, core.ErrInvalidAmount},
		{"empty description", func(e *core.Expense) { e.Description = "  " }, core.ErrEmptyDescription},
		{"missing date", func(e *core.Expense) { e.Date = core.Date{} }, core.ErrInvalidDate},
		{"missing payment method", func(e *core.Expense) { e.PaymentMethod = "" }, core.ErrBadRequest},
		{"unknown category", func(e *core.Expense) { e.CategoryID = "missing" }, core.ErrBadRequest},
		{"foreign category", func(e *core.Expense) { e.CategoryID = bobs }, core.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			_, err := svc.Create(ctx, alice, e)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestExpenseService_List(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewExpenseService(store, nil)

	for i := 1; i <= 25; i++ {
		addExpense(t, store, alice, foodID, int64(i*100), fmt.Sprintf("2024-01-%02d", i))
	}
	addExpense(t, store, bob, foodID, 100, "2024-01-01")

	page, err := svc.List(ctx, alice, ExpenseQuery{})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 10)
	assert.Equal(t, "2024-01-25", page.Data[0].Date.String(), "newest first by default")

	page, err = svc.List(ctx, alice, ExpenseQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)

	page, err = svc.List(ctx, alice, ExpenseQuery{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 25, page.Total)

	minAmount := cents(2000)
	page, err = svc.List(ctx, alice, ExpenseQuery{
		ExpenseFilter: storage.ExpenseFilter{MinAmount: &minAmount, OrderBy: storage.OrderByAmount, Ascending: true},
		Limit:         100,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total, "count respects filters")
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(2000), page.Data[0].Amount.Cents)

	empty, err := svc.List(ctx, "nobody", ExpenseQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 1, empty.TotalPages)
	assert.NotNil(t, empty.Data)

	bad := []ExpenseQuery{
		{Limit: 101},
		{Limit: -1},
		{Page: -2},
		{Page: math.MaxInt / 2, Limit: 100},
		{ExpenseFilter: storage.ExpenseFilter{OrderBy: "description"}},
		{ExpenseFilter: storage.ExpenseFilter{From: mustDate(t, "2024-02-01"), To: mustDate(t, "2024-01-01")}},
		{ExpenseFilter: storage.ExpenseFilter{MinAmount: ptr(cents(500)), MaxAmount: ptr(cents(100))}},
	}
	for _, q := range bad {
		_, err := svc.List(ctx, alice, q)
		requireKind(t, err, core.ErrBadRequest)
	}

	page, err = svc.List(ctx, alice, ExpenseQuery{Page: math.MaxInt / 100, Limit: 100})
	require.NoError(t, err, "the last addressable page is still valid")
	assert.Empty(t, page.Data)
	assert.Equal(t, 25, page.Total)
}

func TestExpenseService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, pub)

	e := addExpense(t, store, alice, foodID, 1000, "2024-03-01")

	updated, err := svc.Update(ctx, alice, e.ID, storage.ExpensePatch{
		Amount:     ptr(cents(1500)),
		CategoryID: ptr(transportID),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.Amount.Cents)
	assert.Equal(t, transportID, updated.CategoryID)
	assert.Equal(t, e.Description, updated.Description)

	_, err = svc.Update(ctx, bob, e.ID, storage.ExpensePatch{Amount: ptr(cents(1))})
	requireKind(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, alice, e.ID, storage.ExpensePatch{Amount: ptr(cents(-5))})
	requireKind(t, err, core.ErrInvalidAmount)

	requireKind(t, svc.Delete(ctx, bob, e.ID), core.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, alice, e.ID))
	requireKind(t, svc.Delete(ctx, alice, e.ID), core.ErrNotFound)

	assert.Equal(t, []amqp.ExpenseAction{amqp.ActionUpdated, amqp.ActionDeleted}, pub.actions())
}

func TestExpenseService_PublishFailureIsNotReturned(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(store, pub)

	_, err := svc.Create(context.Background(), alice, core.Expense{
		Amount:        cents(100),
		Description:   "coffee",
		Date:          mustDate(t, "2024-03-02"),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}
