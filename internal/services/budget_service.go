package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func (c Clock) today() core.Date {
	if c == nil {
		return core.DateOf(time.Now().UTC())
	}
	return core.DateOf(c())
}

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// BudgetService manages budgets and evaluates them against recorded spend.
type BudgetService struct {
	store storage.Store
	clock Clock
}

func NewBudgetService(store storage.Store, clock Clock) *BudgetService {
	return &BudgetService{store: store, clock: clock}
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.Budget, error) {
	budgets, err := s.store.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, ownerID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, core.NotFoundf("budget not found")
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// Create stores a new budget. A zero threshold defaults to 80 percent.
func (s *BudgetService) Create(ctx context.Context, ownerID string, b core.Budget) (core.Budget, error) {
	b.ID = ""
	b.OwnerID = ownerID
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := checkCategoryVisible(ctx, s.store, ownerID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}

	id, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created", "id", id, "period", b.Period, "amount", b.Amount.String())
	return s.confirm(ctx, ownerID, id)
}

func (s *BudgetService) Update(ctx context.Context, ownerID, id string, p storage.BudgetPatch) (core.Budget, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return core.Budget{}, err
	}
	if err := validateBudgetPatch(p); err != nil {
		return core.Budget{}, err
	}
	if p.CategoryID != nil {
		if err := checkCategoryVisible(ctx, s.store, ownerID, *p.CategoryID); err != nil {
			return core.Budget{}, err
		}
	}

	if err := s.store.UpdateBudget(ctx, ownerID, id, p); err != nil {
		return core.Budget{}, writeFailed("update budget", err)
	}
	return s.confirm(ctx, ownerID, id)
}

func validateBudgetPatch(p storage.BudgetPatch) error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Period != nil && !p.Period.IsValid() {
		return core.ErrInvalidPeriod
	}
	if p.StartDate != nil {
		if err := p.StartDate.Validate(); err != nil {
			return err
		}
	}
	if p.AlertThreshold != nil {
		return core.ValidateThreshold(*p.AlertThreshold)
	}
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, ownerID, id); err != nil {
		return writeFailed("delete budget", err)
	}
	return nil
}

// confirm re-reads a row after a write. A missing row means the write did
// not land and is reported as a bad request.
func (s *BudgetService) confirm(ctx context.Context, ownerID, id string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return core.Budget{}, writeFailed("confirm budget", err)
	}
	return b, nil
}

// Statuses evaluates every budget of the owner against today's window.
// Each budget queries its own window; nothing is shared between budgets.
func (s *BudgetService) Statuses(ctx context.Context, ownerID string) ([]core.BudgetStatus, error) {
	budgets, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := s.clock.today()
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.evaluate(ctx, b, today)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *BudgetService) evaluate(ctx context.Context, b core.Budget, today core.Date) (core.BudgetStatus, error) {
	window, err := core.ResolvePeriod(b.Period, b.StartDate, today)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}

	f := storage.InRange(b.OwnerID, window)
	f.CategoryID = b.CategoryID
	expenses, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("list expenses for budget %s: %w", b.ID, err)
	}

	var spent core.Money
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}
	return EvaluateBudget(b, spent, window), nil
}

// EvaluateBudget derives the status of b given the amount spent in window.
// Over and near are independent: a budget can be both.
func EvaluateBudget(b core.Budget, spent core.Money, window core.Window) core.BudgetStatus {
	st := core.BudgetStatus{
		Budget:       b,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		IsOverBudget: spent.Cents > b.Amount.Cents,
		PeriodStart:  window.Start,
		PeriodEnd:    window.End,
	}
	if !b.Amount.IsZero() {
		pct := spent.Decimal().Div(b.Amount.Decimal()).Mul(hundred)
		st.Percentage = pct.Round(2).InexactFloat64()
		st.IsNearLimit = pct.GreaterThanOrEqual(decimalFromInt(b.AlertThreshold))
	}
	return st
}

// Alerts returns the statuses that are near their limit or over budget.
func Alerts(statuses []core.BudgetStatus) []core.BudgetStatus {
	var out []core.BudgetStatus
	for _, st := range statuses {
		if st.IsNearLimit || st.IsOverBudget {
			out = append(out, st)
		}
	}
	return out
}
