// Package worker reacts to expense events published by the API.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
)

// StatusSource evaluates an owner's budgets for the current period.
type StatusSource interface {
	Statuses(ctx context.Context, ownerID string) ([]core.BudgetStatus, error)
}

// AlertWorker notifies owners when an expense pushes a budget near or over
// its limit. Each budget alerts at most once per period and level.
type AlertWorker struct {
	budgets  StatusSource
	notifier notify.Notifier
	logger   *log.Logger

	sent *cache.LRU[alertKey, struct{}]
}

type alertKey struct {
	budgetID    string
	periodStart string
	level       notify.Level
}

// Sent alerts outlive the longest (yearly) budget period.
const (
	sentAlertsTTL     = 370 * 24 * time.Hour
	sentAlertsMaxSize = 10000
)

func NewAlertWorker(budgets StatusSource, notifier notify.Notifier, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		budgets:  budgets,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentWorker),
		sent:     cache.NewLRU[alertKey, struct{}](sentAlertsMaxSize, sentAlertsTTL),
	}
}

// HandleExpenseEvent evaluates the owner's budgets and sends one notification
// per alerting budget not yet notified this period. An error requeues the
// event; alerts that did go out are not repeated.
func (w *AlertWorker) HandleExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.DebugContext(ctx, "Processing expense event",
		log.FieldOwnerID, ev.OwnerID,
		log.FieldExpenseID, ev.ExpenseID,
		"action", ev.Action)

	statuses, err := w.budgets.Statuses(ctx, ev.OwnerID)
	if err != nil {
		return fmt.Errorf("evaluate budgets for %s: %w", ev.OwnerID, err)
	}

	var errs []error
	for _, st := range services.Alerts(statuses) {
		key := alertKey{budgetID: st.Budget.ID, periodStart: st.PeriodStart.String(), level: notify.LevelOf(st)}
		if w.sent.Contains(key) {
			continue
		}

		if err := w.notifier.Notify(ctx, ev.OwnerID, st); err != nil {
			w.logger.ErrorContext(ctx, "Failed to send budget alert",
				log.FieldOperation, log.OpNotify,
				log.FieldOwnerID, ev.OwnerID,
				log.FieldBudgetID, st.Budget.ID,
				log.FieldError, err)
			errs = append(errs, err)
			continue
		}
		w.sent.Set(key, struct{}{})
	}

	return errors.Join(errs...)
}
