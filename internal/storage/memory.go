package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// MemoryStore implements Store with in-memory maps. Data is lost on restart.
type MemoryStore struct {
	mu sync.RWMutex

	expenses      map[string]core.Expense
	categories    map[string]core.Category
	budgets       map[string]core.Budget
	goals         map[string]core.Goal
	contributions map[string][]core.Contribution // by goal id

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store seeded with the default categories.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		expenses:      make(map[string]core.Expense),
		categories:    make(map[string]core.Category),
		budgets:       make(map[string]core.Budget),
		goals:         make(map[string]core.Goal),
		contributions: make(map[string][]core.Contribution),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, c := range DefaultCategories {
		c.ID = DefaultCategoryID(c.Name)
		c.IsDefault = true
		c.CreatedAt = m.now()
		m.categories[c.ID] = c
	}
	return m
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
func (m *MemoryStore) Close() error                   { return nil }

// joinCategory attaches display data. Callers hold the lock.
func (m *MemoryStore) joinCategory(id string) *core.CategoryInfo {
	if id == "" {
		return nil
	}
	c, ok := m.categories[id]
	if !ok {
		return nil
	}
	return c.Info()
}

// Expense operations

func (m *MemoryStore) matchExpenses(f ExpenseFilter) []core.Expense {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []core.Expense
	for _, e := range m.expenses {
		if e.OwnerID != f.OwnerID {
			continue
		}
		if f.CategoryID != "" && e.CategoryID != f.CategoryID {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To.Time) {
			continue
		}
		if f.MinAmount != nil && e.Amount.Cents < f.MinAmount.Cents {
			continue
		}
		if f.MaxAmount != nil && e.Amount.Cents > f.MaxAmount.Cents {
			continue
		}
		if f.PaymentMethod != "" && e.PaymentMethod != f.PaymentMethod {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		e.Category = m.joinCategory(e.CategoryID)
		out = append(out, e)
	}
	return out
}

func (m *MemoryStore) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.matchExpenses(f)
	sortExpenses(out, f.OrderBy, f.Ascending)
	return paginate(out, f.Offset, f.Limit), nil
}

func (m *MemoryStore) CountExpenses(ctx context.Context, f ExpenseFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchExpenses(f)), nil
}

func sortExpenses(es []core.Expense, order ExpenseOrder, asc bool) {
	slices.SortStableFunc(es, func(a, b core.Expense) int {
		var c int
		switch order {
		case OrderByAmount:
			c = cmp.Compare(a.Amount.Cents, b.Amount.Cents)
		case OrderByCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = a.Date.Compare(b.Date.Time)
		}
		if c == 0 {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if !asc {
			c = -c
		}
		return c
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (m *MemoryStore) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, ErrNotFound
	}
	e.Category = m.joinCategory(e.CategoryID)
	return e, nil
}

func (m *MemoryStore) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := m.now()
	e.CreatedAt, e.UpdatedAt = now, now
	e.Category = nil
	m.expenses[e.ID] = e
	return e.ID, nil
}

func (m *MemoryStore) UpdateExpense(ctx context.Context, ownerID, id string, p ExpensePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
	e.UpdatedAt = m.now()
	m.expenses[id] = e
	return nil
}

func (m *MemoryStore) DeleteExpense(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MemoryStore) CountExpensesByCategory(ctx context.Context, categoryID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.expenses {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// Category operations

func (m *MemoryStore) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Category
	for _, c := range m.categories {
		if c.IsDefault || c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *MemoryStore) GetCategory(ctx context.Context, id string) (core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return core.Category{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) FindCategoryByName(ctx context.Context, ownerID, name string) (core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if !c.IsDefault && c.OwnerID == ownerID && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, ErrNotFound
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = m.now()
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *MemoryStore) UpdateCategory(ctx context.Context, ownerID, id string, p CategoryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok || c.IsDefault || c.OwnerID != ownerID {
		return ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	m.categories[id] = c
	return nil
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok || c.IsDefault || c.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// Budget operations

func (m *MemoryStore) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Budget
	for _, b := range m.budgets {
		if b.OwnerID == ownerID {
			b.Category = m.joinCategory(b.CategoryID)
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b core.Budget) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return core.Budget{}, ErrNotFound
	}
	b.Category = m.joinCategory(b.CategoryID)
	return b, nil
}

func (m *MemoryStore) CreateBudget(ctx context.Context, b core.Budget) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := m.now()
	b.CreatedAt, b.UpdatedAt = now, now
	b.Category = nil
	m.budgets[b.ID] = b
	return b.ID, nil
}

func (m *MemoryStore) UpdateBudget(ctx context.Context, ownerID, id string, p BudgetPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return ErrNotFound
	}
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.AlertThreshold != nil {
		b.AlertThreshold = *p.AlertThreshold
	}
	b.UpdatedAt = m.now()
	m.budgets[id] = b
	return nil
}

func (m *MemoryStore) DeleteBudget(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

// Goal operations

func (m *MemoryStore) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Goal
	for _, g := range m.goals {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b core.Goal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[id]
	if !ok || g.OwnerID != ownerID {
		return core.Goal{}, ErrNotFound
	}
	return g, nil
}

func (m *MemoryStore) CreateGoal(ctx context.Context, g core.Goal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	now := m.now()
	g.CreatedAt, g.UpdatedAt = now, now
	m.goals[g.ID] = g
	return g.ID, nil
}

func (m *MemoryStore) UpdateGoal(ctx context.Context, ownerID, id string, p GoalPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok || g.OwnerID != ownerID {
		return ErrNotFound
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.Icon != nil {
		g.Icon = *p.Icon
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	g.UpdatedAt = m.now()
	m.goals[id] = g
	return nil
}

func (m *MemoryStore) DeleteGoal(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok || g.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.goals, id)
	delete(m.contributions, id)
	return nil
}

func (m *MemoryStore) AddGoalContribution(ctx context.Context, ownerID string, c core.Contribution) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[c.GoalID]
	if !ok || g.OwnerID != ownerID {
		return core.Goal{}, ErrNotFound
	}
	if g.Status != core.GoalActive {
		return core.Goal{}, ErrGoalInactive
	}

	now := m.now()
	g.CurrentAmount = g.CurrentAmount.Add(c.Amount)
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		g.Status = core.GoalCompleted
	}
	g.UpdatedAt = now
	m.goals[g.ID] = g

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = now
	m.contributions[g.ID] = append(m.contributions[g.ID], c)
	return g, nil
}

func (m *MemoryStore) ListContributions(ctx context.Context, ownerID, goalID string) ([]core.Contribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[goalID]
	if !ok || g.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := slices.Clone(m.contributions[goalID])
	slices.Reverse(out)
	return out, nil
}
