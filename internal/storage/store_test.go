package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// runStoreTests exercises the Store contract shared by every backend.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("default categories", func(t *testing.T) {
		testDefaultCategories(t, newStore(t))
	})
	t.Run("expense crud", func(t *testing.T) {
		testExpenseCRUD(t, newStore(t))
	})
	t.Run("expense filters", func(t *testing.T) {
		testExpenseFilters(t, newStore(t))
	})
	t.Run("category crud", func(t *testing.T) {
		testCategoryCRUD(t, newStore(t))
	})
	t.Run("budget crud", func(t *testing.T) {
		testBudgetCRUD(t, newStore(t))
	})
	t.Run("goal contributions", func(t *testing.T) {
		testGoalContributions(t, newStore(t))
	})
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func ptr[T any](v T) *T { return &v }

func seedExpense(t *testing.T, s Store, owner, category string, amount int64, desc, date, method string) string {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	id, err := s.CreateExpense(context.Background(), core.Expense{
		OwnerID:       owner,
		CategoryID:    category,
		Amount:        cents(amount),
		Description:   desc,
		Date:          d,
		PaymentMethod: method,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func testDefaultCategories(t *testing.T, s Store) {
	ctx := context.Background()

	cats, err := s.ListCategories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cats, len(DefaultCategories))

	for i, c := range cats {
		assert.True(t, c.IsDefault)
		assert.Empty(t, c.OwnerID)
		if i > 0 {
			assert.LessOrEqual(t, cats[i-1].Name, c.Name, "defaults are ordered by name")
		}
	}

	food, err := s.GetCategory(ctx, DefaultCategoryID("Food & Dining"))
	require.NoError(t, err)
	assert.Equal(t, "🍔", food.Icon)
	assert.Equal(t, core.KindExpense, food.Kind)
}

func testExpenseCRUD(t *testing.T, s Store) {
	ctx := context.Background()
	foodID := DefaultCategoryID("Food & Dining")

	id := seedExpense(t, s, "alice", foodID, 1250, "Lunch", "2024-03-15", "card")

	got, err := s.GetExpense(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, cents(1250), got.Amount)
	assert.Equal(t, "2024-03-15", got.Date.String())
	assert.False(t, got.CreatedAt.IsZero())
	require.NotNil(t, got.Category)
	assert.Equal(t, "Food & Dining", got.Category.Name)

	_, err = s.GetExpense(ctx, "bob", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.UpdateExpense(ctx, "alice", id, ExpensePatch{Amount: ptr(cents(990))})
	require.NoError(t, err)

	got, err = s.GetExpense(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, cents(990), got.Amount)
	assert.Equal(t, "Lunch", got.Description, "unset fields stay untouched")

	assert.ErrorIs(t, s.UpdateExpense(ctx, "bob", id, ExpensePatch{Description: ptr("x")}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, "bob", id), ErrNotFound)

	n, err := s.CountExpensesByCategory(ctx, foodID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteExpense(ctx, "alice", id))
	_, err = s.GetExpense(ctx, "alice", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testExpenseFilters(t *testing.T, s Store) {
	ctx := context.Background()
	food := DefaultCategoryID("Food & Dining")
	travel := DefaultCategoryID("Travel")

	seedExpense(t, s, "alice", food, 1000, "Coffee beans", "2024-01-05", "cash")
	seedExpense(t, s, "alice", food, 2500, "Dinner with COFFEE", "2024-01-20", "card")
	seedExpense(t, s, "alice", travel, 15000, "Train ticket", "2024-02-02", "card")
	seedExpense(t, s, "alice", "", 300, "100% juice_bar", "2024-02-10", "cash")
	seedExpense(t, s, "bob", food, 999, "Coffee", "2024-01-05", "cash")

	tests := []struct {
		name   string
		filter ExpenseFilter
		want   []string
	}{
		{
			name:   "owner only, newest first",
			filter: ExpenseFilter{OwnerID: "alice"},
			want:   []string{"100% juice_bar", "Train ticket", "Dinner with COFFEE", "Coffee beans"},
		},
		{
			name:   "case-insensitive search",
			filter: ExpenseFilter{OwnerID: "alice", Search: "coffee"},
			want:   []string{"Dinner with COFFEE", "Coffee beans"},
		},
		{
			name:   "search treats wildcards literally",
			filter: ExpenseFilter{OwnerID: "alice", Search: "0% juice_"},
			want:   []string{"100% juice_bar"},
		},
		{
			name:   "category",
			filter: ExpenseFilter{OwnerID: "alice", CategoryID: travel},
			want:   []string{"Train ticket"},
		},
		{
			name:   "inclusive date range",
			filter: ExpenseFilter{OwnerID: "alice", From: core.NewDate(2024, 1, 20), To: core.NewDate(2024, 2, 2)},
			want:   []string{"Train ticket", "Dinner with COFFEE"},
		},
		{
			name:   "amount range",
			filter: ExpenseFilter{OwnerID: "alice", MinAmount: ptr(cents(1000)), MaxAmount: ptr(cents(2500))},
			want:   []string{"Dinner with COFFEE", "Coffee beans"},
		},
		{
			name:   "payment method",
			filter: ExpenseFilter{OwnerID: "alice", PaymentMethod: "cash"},
			want:   []string{"100% juice_bar", "Coffee beans"},
		},
		{
			name:   "amount ascending",
			filter: ExpenseFilter{OwnerID: "alice", OrderBy: OrderByAmount, Ascending: true},
			want:   []string{"100% juice_bar", "Coffee beans", "Dinner with COFFEE", "Train ticket"},
		},
		{
			name:   "pagination",
			filter: ExpenseFilter{OwnerID: "alice", Offset: 1, Limit: 2},
			want:   []string{"Train ticket", "Dinner with COFFEE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListExpenses(ctx, tt.filter)
			require.NoError(t, err)

			var descs []string
			for _, e := range got {
				descs = append(descs, e.Description)
			}
			assert.Equal(t, tt.want, descs)
		})
	}

	t.Run("count ignores pagination", func(t *testing.T) {
		n, err := s.CountExpenses(ctx, ExpenseFilter{OwnerID: "alice", PaymentMethod: "card", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("missing category joins nil", func(t *testing.T) {
		got, err := s.ListExpenses(ctx, ExpenseFilter{OwnerID: "alice", Search: "juice"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Category)
	})
}

func testCategoryCRUD(t *testing.T, s Store) {
	ctx := context.Background()

	id, err := s.CreateCategory(ctx, core.Category{
		OwnerID: "alice",
		Name:    "Pets",
		Icon:    "🐶",
		Color:   "#123456",
		Kind:    core.KindExpense,
	})
	require.NoError(t, err)

	found, err := s.FindCategoryByName(ctx, "alice", "Pets")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	_, err = s.FindCategoryByName(ctx, "bob", "Pets")
	assert.ErrorIs(t, err, ErrNotFound)

	cats, err := s.ListCategories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cats, len(DefaultCategories)+1)
	assert.Equal(t, "Pets", cats[len(cats)-1].Name, "custom categories follow defaults")

	bobCats, err := s.ListCategories(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobCats, len(DefaultCategories))

	require.NoError(t, s.UpdateCategory(ctx, "alice", id, CategoryPatch{Color: ptr("#000000")}))
	got, err := s.GetCategory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "#000000", got.Color)
	assert.Equal(t, "Pets", got.Name)

	defaultID := DefaultCategoryID("Travel")
	assert.ErrorIs(t, s.UpdateCategory(ctx, "alice", defaultID, CategoryPatch{Name: ptr("Trips")}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "alice", defaultID), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "bob", id), ErrNotFound)

	require.NoError(t, s.DeleteCategory(ctx, "alice", id))
	_, err = s.GetCategory(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBudgetCRUD(t *testing.T, s Store) {
	ctx := context.Background()
	food := DefaultCategoryID("Food & Dining")

	id, err := s.CreateBudget(ctx, core.Budget{
		OwnerID:        "alice",
		CategoryID:     food,
		Amount:         cents(50000),
		Period:         core.Monthly,
		StartDate:      core.NewDate(2024, 1, 1),
		AlertThreshold: 80,
	})
	require.NoError(t, err)

	overall, err := s.CreateBudget(ctx, core.Budget{
		OwnerID:        "alice",
		Amount:         cents(100000),
		Period:         core.Weekly,
		StartDate:      core.NewDate(2024, 1, 3),
		AlertThreshold: 90,
	})
	require.NoError(t, err)

	got, err := s.GetBudget(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, core.Monthly, got.Period)
	assert.Equal(t, "2024-01-01", got.StartDate.String())
	require.NotNil(t, got.Category)
	assert.Equal(t, "Food & Dining", got.Category.Name)

	list, err := s.ListBudgets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)

	g, err := s.GetBudget(ctx, "alice", overall)
	require.NoError(t, err)
	assert.Empty(t, g.CategoryID)
	assert.Nil(t, g.Category)

	_, err = s.GetBudget(ctx, "bob", id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateBudget(ctx, "alice", id, BudgetPatch{AlertThreshold: ptr(95)}))
	got, err = s.GetBudget(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, 95, got.AlertThreshold)
	assert.Equal(t, cents(50000), got.Amount)

	require.NoError(t, s.DeleteBudget(ctx, "alice", id))
	assert.ErrorIs(t, s.DeleteBudget(ctx, "alice", id), ErrNotFound)
}

func testGoalContributions(t *testing.T, s Store) {
	ctx := context.Background()

	id, err := s.CreateGoal(ctx, core.Goal{
		OwnerID:       "alice",
		Name:          "Emergency fund",
		TargetAmount:  cents(100000),
		CurrentAmount: cents(80000),
		Deadline:      core.NewDate(2025, 12, 31),
		Status:        core.GoalActive,
	})
	require.NoError(t, err)

	_, err = s.AddGoalContribution(ctx, "bob", core.Contribution{GoalID: id, Amount: cents(100)})
	assert.ErrorIs(t, err, ErrNotFound)

	g, err := s.AddGoalContribution(ctx, "alice", core.Contribution{GoalID: id, Amount: cents(10000), Note: "bonus"})
	require.NoError(t, err)
	assert.Equal(t, cents(90000), g.CurrentAmount)
	assert.Equal(t, core.GoalActive, g.Status)

	g, err = s.AddGoalContribution(ctx, "alice", core.Contribution{GoalID: id, Amount: cents(15000)})
	require.NoError(t, err)
	assert.Equal(t, cents(105000), g.CurrentAmount)
	assert.Equal(t, core.GoalCompleted, g.Status)

	_, err = s.AddGoalContribution(ctx, "alice", core.Contribution{GoalID: id, Amount: cents(100)})
	assert.ErrorIs(t, err, ErrGoalInactive)
	assert.ErrorIs(t, err, core.ErrBadRequest)

	contributions, err := s.ListContributions(ctx, "alice", id)
	require.NoError(t, err)
	require.Len(t, contributions, 2)
	var total int64
	for _, c := range contributions {
		assert.Equal(t, id, c.GoalID)
		total += c.Amount.Cents
	}
	assert.Equal(t, int64(25000), total)

	_, err = s.ListContributions(ctx, "bob", id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateGoal(ctx, "alice", id, GoalPatch{Status: ptr(core.GoalCancelled)}))
	got, err := s.GetGoal(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, core.GoalCancelled, got.Status)
	assert.Equal(t, "Emergency fund", got.Name)

	goals, err := s.ListGoals(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	require.NoError(t, s.DeleteGoal(ctx, "alice", id))
	_, err = s.GetGoal(ctx, "alice", id)
	assert.ErrorIs(t, err, ErrNotFound)
}
