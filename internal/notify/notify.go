// Package notify delivers budget alerts to owners.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

// Notifier delivers one alert for a budget that is near or over its limit.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, status core.BudgetStatus) error
}

// Level classifies an alert.
type Level string

const (
	LevelNearLimit  Level = "near_limit"
	LevelOverBudget Level = "over_budget"
)

// LevelOf returns the alert level of a status, or "" when it needs no alert.
func LevelOf(st core.BudgetStatus) Level {
	switch {
	case st.IsOverBudget:
		return LevelOverBudget
	case st.IsNearLimit:
		return LevelNearLimit
	}
	return ""
}

func budgetName(st core.BudgetStatus) string {
	if st.Budget.Category != nil && st.Budget.Category.Name != "" {
		return st.Budget.Category.Name
	}
	if st.Budget.CategoryID == "" {
		return "Overall"
	}
	return st.Budget.CategoryID
}

// Subject is the one-line summary of an alert.
func Subject(st core.BudgetStatus) string {
	if LevelOf(st) == LevelOverBudget {
		return fmt.Sprintf("Budget exceeded: %s", budgetName(st))
	}
	return fmt.Sprintf("Budget alert: %s at %.0f%%", budgetName(st), st.Percentage)
}

// Body renders the plain-text alert.
func Body(st core.BudgetStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s %s budget for %s to %s:\n\n",
		budgetName(st), st.Budget.Period, st.PeriodStart, st.PeriodEnd)
	fmt.Fprintf(&b, "Budget:    %s\n", export.FormatDollars(st.Budget.Amount))
	fmt.Fprintf(&b, "Spent:     %s (%.2f%%)\n", export.FormatDollars(st.Spent), st.Percentage)
	if st.IsOverBudget {
		fmt.Fprintf(&b, "Over by:   %s\n", export.FormatDollars(st.Spent.Sub(st.Budget.Amount)))
	} else {
		fmt.Fprintf(&b, "Remaining: %s\n", export.FormatDollars(st.Remaining))
	}
	b.WriteString("\nFintrack")
	return b.String()
}

// LogNotifier writes alerts to the log. It is used when no mail server is
// configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, ownerID string, st core.BudgetStatus) error {
	n.logger.WarnContext(ctx, Subject(st),
		log.FieldOperation, log.OpNotify,
		log.FieldOwnerID, ownerID,
		log.FieldBudgetID, st.Budget.ID,
		"level", LevelOf(st),
		"spent", st.Spent.String(),
		"budget", st.Budget.Amount.String(),
		"percentage", st.Percentage)
	return nil
}

// SMTPConfig holds the mail server settings for EmailNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier mails alerts to owners whose id is an e-mail address.
type EmailNotifier struct {
	from   string
	addr   string
	auth   smtp.Auth
	logger *log.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewEmailNotifier(cfg SMTPConfig, logger *log.Logger) *EmailNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailNotifier{
		from:   cfg.From,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		logger: logger.WithComponent(log.ComponentNotify),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Notify sends the alert. Owners without a mail address are skipped.
func (n *EmailNotifier) Notify(ctx context.Context, ownerID string, st core.BudgetStatus) error {
	to, err := mail.ParseAddress(ownerID)
	if err != nil {
		n.logger.WarnContext(ctx, "Owner has no e-mail address, alert not sent",
			log.FieldOwnerID, ownerID,
			log.FieldBudgetID, st.Budget.ID)
		return nil
	}

	e := email.NewEmail()
	e.From = n.from
	e.To = []string{to.Address}
	e.Subject = Subject(st)
	e.Text = []byte(Body(st))

	if err := n.send(e, n.addr, n.auth); err != nil {
		return fmt.Errorf("send budget alert to %s: %w", to.Address, err)
	}

	n.logger.InfoContext(ctx, "Budget alert sent",
		log.FieldOperation, log.OpNotify,
		log.FieldOwnerID, ownerID,
		log.FieldBudgetID, st.Budget.ID,
		"subject", e.Subject)
	return nil
}
