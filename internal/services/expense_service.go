package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// EventPublisher announces expense writes to asynchronous consumers.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense operations across the store and AMQP.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
}

// NewExpenseService creates the service. publisher may be nil, in which case
// no events are emitted.
func NewExpenseService(store storage.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// ExpenseQuery is a filtered, paginated listing request. Page is 1-based;
// zero Page and Limit select the defaults.
type ExpenseQuery struct {
	storage.ExpenseFilter
	Page  int
	Limit int
}

// ExpensePage is one page of a listing plus the exact filtered total.
type ExpensePage struct {
	Data       []core.Expense `json:"data"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func (q *ExpenseQuery) normalize() error {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Page < 1 {
		return core.BadRequestf("page must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		return core.BadRequestf("limit must be between 1 and %d", MaxPageLimit)
	}
	if q.Page > math.MaxInt/q.Limit {
		return core.BadRequestf("page %d is out of range", q.Page)
	}
	if q.OrderBy == "" {
		q.OrderBy = storage.OrderByDate
	}
	if !q.OrderBy.IsValid() {
		return core.BadRequestf("cannot order by %q", q.OrderBy)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To.Time) {
		return core.ErrInvalidDateRange
	}
	if q.MinAmount != nil && q.MaxAmount != nil && q.MinAmount.Cents > q.MaxAmount.Cents {
		return core.BadRequestf("min_amount must not exceed max_amount")
	}
	return nil
}

// List returns one page of the owner's expenses, newest first by default.
func (s *ExpenseService) List(ctx context.Context, ownerID string, q ExpenseQuery) (ExpensePage, error) {
	if err := q.normalize(); err != nil {
		return ExpensePage{}, err
	}

	f := q.ExpenseFilter
	f.OwnerID = ownerID
	f.Offset = (q.Page - 1) * q.Limit
	f.Limit = q.Limit

	total, err := s.store.CountExpenses(ctx, f)
	if err != nil {
		return ExpensePage{}, fmt.Errorf("count expenses: %w", err)
	}

	items, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	if items == nil {
		items = []core.Expense{}
	}

	totalPages := 1
	if total > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}

	return ExpensePage{
		Data:       items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, core.NotFoundf("expense not found")
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Create saves an expense and publishes a created event.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.OwnerID = ownerID
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := checkCategoryVisible(ctx, s.store, ownerID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	saved, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, writeFailed("create expense", err)
	}

	s.publish(ctx, saved, amqp.ActionCreated)
	return saved, nil
}

// Update applies a partial update after checking ownership.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, p storage.ExpensePatch) (core.Expense, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return core.Expense{}, err
	}
	if err := validateExpensePatch(p); err != nil {
		return core.Expense{}, err
	}
	if p.CategoryID != nil {
		if err := checkCategoryVisible(ctx, s.store, ownerID, *p.CategoryID); err != nil {
			return core.Expense{}, err
		}
	}

	if err := s.store.UpdateExpense(ctx, ownerID, id, p); err != nil {
		return core.Expense{}, writeFailed("update expense", err)
	}

	saved, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, writeFailed("update expense", err)
	}

	s.publish(ctx, saved, amqp.ActionUpdated)
	return saved, nil
}

func validateExpensePatch(p storage.ExpensePatch) error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := core.ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.PaymentMethod != nil && *p.PaymentMethod == "" {
		return core.BadRequestf("payment method is required")
	}
	return nil
}

// Delete removes an expense after checking ownership and publishes a deleted event.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	e, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return writeFailed("delete expense", err)
	}

	s.publish(ctx, e, amqp.ActionDeleted)
	return nil
}

// publish emits an event for e. Failures are logged, never returned.
func (s *ExpenseService) publish(ctx context.Context, e core.Expense, action amqp.ExpenseAction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping expense event", "id", e.ID)
		return
	}

	ev := amqp.NewExpenseEvent(e.OwnerID, e.ID, action, e.Date.String())
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"id", e.ID,
			"action", action,
			"error", err)
	}
}
