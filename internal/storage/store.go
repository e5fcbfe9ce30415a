// Package storage persists transactions, categories, budgets and goals.
//
// Every query is scoped by owner. Implementations: an in-memory store for
// development and tests, and a SQL repository backed by SQLite or PostgreSQL.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another owner.
	ErrNotFound = fmt.Errorf("%w: record not found", core.ErrNotFound)
	// ErrGoalInactive is returned when contributing to a completed or cancelled goal.
	ErrGoalInactive = fmt.Errorf("%w: goal is not active", core.ErrBadRequest)
)

// ExpenseOrder is a sortable expense column.
type ExpenseOrder string

const (
	OrderByDate      ExpenseOrder = "date"
	OrderByAmount    ExpenseOrder = "amount"
	OrderByCreatedAt ExpenseOrder = "created_at"
)

func (o ExpenseOrder) IsValid() bool {
	switch o {
	case OrderByDate, OrderByAmount, OrderByCreatedAt:
		return true
	}
	return false
}

// ExpenseFilter selects an owner's expenses. Zero values mean "no constraint".
type ExpenseFilter struct {
	OwnerID       string
	CategoryID    string
	From          core.Date
	To            core.Date
	MinAmount     *core.Money
	MaxAmount     *core.Money
	Search        string
	PaymentMethod string

	OrderBy   ExpenseOrder
	Ascending bool
	Offset    int
	Limit     int
}

// InRange returns a filter for every expense of owner between from and to inclusive.
func InRange(ownerID string, w core.Window) ExpenseFilter {
	return ExpenseFilter{OwnerID: ownerID, From: w.Start, To: w.End}
}

// Patches carry optional updates decoded straight from request bodies.
// Nil fields are left untouched.
type (
	ExpensePatch struct {
		CategoryID    *string     `json:"category_id,omitempty"`
		Amount        *core.Money `json:"amount,omitempty"`
		Description   *string     `json:"description,omitempty"`
		Date          *core.Date  `json:"date,omitempty"`
		PaymentMethod *string     `json:"payment_method,omitempty"`
	}

	CategoryPatch struct {
		Name  *string `json:"name,omitempty"`
		Icon  *string `json:"icon,omitempty"`
		Color *string `json:"color,omitempty"`
	}

	BudgetPatch struct {
		CategoryID     *string          `json:"category_id,omitempty"`
		Amount         *core.Money      `json:"amount,omitempty"`
		Period         *core.PeriodKind `json:"period,omitempty"`
		StartDate      *core.Date       `json:"start_date,omitempty"`
		AlertThreshold *int             `json:"alert_threshold,omitempty"`
	}

	GoalPatch struct {
		Name         *string          `json:"name,omitempty"`
		TargetAmount *core.Money      `json:"target_amount,omitempty"`
		Deadline     *core.Date       `json:"deadline,omitempty"`
		Icon         *string          `json:"icon,omitempty"`
		Color        *string          `json:"color,omitempty"`
		Status       *core.GoalStatus `json:"status,omitempty"`
	}
)

type ExpenseStore interface {
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error)
	// CountExpenses returns the number of matches ignoring Offset and Limit.
	CountExpenses(ctx context.Context, f ExpenseFilter) (int, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
	UpdateExpense(ctx context.Context, ownerID, id string, p ExpensePatch) error
	DeleteExpense(ctx context.Context, ownerID, id string) error
	// CountExpensesByCategory counts expenses of any owner referencing the category.
	CountExpensesByCategory(ctx context.Context, categoryID string) (int, error)
}

type CategoryStore interface {
	// ListCategories returns defaults first, then the owner's categories, each group by name.
	ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
	// GetCategory looks a category up by id regardless of owner.
	GetCategory(ctx context.Context, id string) (core.Category, error)
	FindCategoryByName(ctx context.Context, ownerID, name string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (string, error)
	UpdateCategory(ctx context.Context, ownerID, id string, p CategoryPatch) error
	DeleteCategory(ctx context.Context, ownerID, id string) error
}

type BudgetStore interface {
	ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (string, error)
	UpdateBudget(ctx context.Context, ownerID, id string, p BudgetPatch) error
	DeleteBudget(ctx context.Context, ownerID, id string) error
}

type GoalStore interface {
	ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
	GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error)
	CreateGoal(ctx context.Context, g core.Goal) (string, error)
	UpdateGoal(ctx context.Context, ownerID, id string, p GoalPatch) error
	DeleteGoal(ctx context.Context, ownerID, id string) error
	// AddGoalContribution records c and increments the goal in one step.
	// The goal flips to completed once current >= target. Inactive goals
	// return ErrGoalInactive.
	AddGoalContribution(ctx context.Context, ownerID string, c core.Contribution) (core.Goal, error)
	ListContributions(ctx context.Context, ownerID, goalID string) ([]core.Contribution, error)
}

// Store is the full record store.
type Store interface {
	ExpenseStore
	CategoryStore
	BudgetStore
	GoalStore

	Ping(ctx context.Context) error
	Close() error
}

// DefaultCategories are seeded into every new store. They are shared by all owners.
var DefaultCategories = []core.Category{
	{Name: "Food & Dining", Icon: "🍔", Color: "#f97316", Kind: core.KindExpense},
	{Name: "Transportation", Icon: "🚗", Color: "#3b82f6", Kind: core.KindExpense},
	{Name: "Shopping", Icon: "🛍️", Color: "#ec4899", Kind: core.KindExpense},
	{Name: "Entertainment", Icon: "🎬", Color: "#8b5cf6", Kind: core.KindExpense},
	{Name: "Bills & Utilities", Icon: "📱", Color: "#ef4444", Kind: core.KindExpense},
	{Name: "Health", Icon: "💊", Color: "#10b981", Kind: core.KindExpense},
	{Name: "Education", Icon: "📚", Color: "#06b6d4", Kind: core.KindExpense},
	{Name: "Groceries", Icon: "🛒", Color: "#84cc16", Kind: core.KindExpense},
	{Name: "Travel", Icon: "✈️", Color: "#f59e0b", Kind: core.KindExpense},
	{Name: "Other", Icon: "📦", Color: "#6b7280", Kind: core.KindExpense},
	{Name: "Salary", Icon: "💰", Color: "#10b981", Kind: core.KindIncome},
	{Name: "Freelance", Icon: "💼", Color: "#3b82f6", Kind: core.KindIncome},
	{Name: "Investments", Icon: "📈", Color: "#8b5cf6", Kind: core.KindIncome},
	{Name: "Other Income", Icon: "💵", Color: "#6b7280", Kind: core.KindIncome},
}

// DefaultCategoryID derives a stable id for a default category so every
// backend seeds the same ids.
func DefaultCategoryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("fintrack:category:"+name)).String()
}
