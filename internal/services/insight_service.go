package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	summaryTopCategories = 5
	chatTopCategories    = 3

	// Spend changes within ±trendThreshold percent count as stable.
	trendThreshold = 5

	predictionLookbackDays = 90
	predictionMonths       = 3
	predictionConfidence   = 0.75
)

// Generator is the text generation backend used for tips and chat.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, history []core.ChatMessage, message, snapshot string) (string, error)
}

// InsightService derives summaries, predictions and generated advice from
// the owner's transactions.
type InsightService struct {
	store     storage.Store
	generator Generator
	clock     Clock
}

// NewInsightService creates the service. generator may be nil, in which case
// tips fall back to the built-in set and chat fails with ErrUpstream.
func NewInsightService(store storage.Store, generator Generator, clock Clock) *InsightService {
	return &InsightService{store: store, generator: generator, clock: clock}
}

func (s *InsightService) expenses(ctx context.Context, ownerID string, w core.Window) ([]core.Expense, error) {
	es, err := s.store.ListExpenses(ctx, storage.InRange(ownerID, w))
	if err != nil {
		return nil, fmt.Errorf("list expenses %s to %s: %w", w.Start, w.End, err)
	}
	return es, nil
}

// Summary reports spend in the calendar period containing today and compares
// it with the preceding period.
func (s *InsightService) Summary(ctx context.Context, ownerID string, period core.PeriodKind) (core.SpendingSummary, error) {
	today := s.clock.today()

	cur, err := core.ResolveCalendar(period, today)
	if err != nil {
		return core.SpendingSummary{}, err
	}
	prev, err := core.ResolvePrevious(period, today)
	if err != nil {
		return core.SpendingSummary{}, err
	}

	current, err := s.expenses(ctx, ownerID, cur)
	if err != nil {
		return core.SpendingSummary{}, err
	}
	previous, err := s.expenses(ctx, ownerID, prev)
	if err != nil {
		return core.SpendingSummary{}, err
	}

	agg := Aggregate(current)
	prevTotal := Aggregate(previous).Total

	top := make([]core.CategorySpending, 0, summaryTopCategories)
	for _, c := range agg.Top(summaryTopCategories) {
		top = append(top, c.Spending())
	}

	change := ChangePercentage(agg.Total, prevTotal)

	return core.SpendingSummary{
		Period:        period,
		StartDate:     cur.Start,
		EndDate:       cur.End,
		TotalSpent:    agg.Total,
		TotalIncome:   core.Money{},
		NetBalance:    core.Money{}.Sub(agg.Total),
		TopCategories: top,
		Comparison: core.SpendingComparison{
			PreviousPeriod:   prevTotal,
			ChangePercentage: change,
			Trend:            classifyTrend(change),
		},
	}, nil
}

func classifyTrend(change float64) core.Trend {
	switch {
	case change > trendThreshold:
		return core.TrendUp
	case change < -trendThreshold:
		return core.TrendDown
	}
	return core.TrendStable
}

// summaryContext renders the summary lines shared by the tip prompt and chat.
func summaryContext(sum core.SpendingSummary, topN int) string {
	cats := sum.TopCategories
	if len(cats) > topN {
		cats = cats[:topN]
	}
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s: $%s", c.CategoryName, c.Amount))
	}
	top := strings.Join(parts, ", ")
	if top == "" {
		top = "none recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Total spent this month: $%s\n", sum.TotalSpent)
	fmt.Fprintf(&b, "- Top categories: %s\n", top)
	fmt.Fprintf(&b, "- Spending trend compared to last month: %s (%.2f%%)\n", sum.Comparison.Trend, sum.Comparison.ChangePercentage)
	return b.String()
}

// TipsPrompt builds the generation prompt for the given monthly summary.
func TipsPrompt(sum core.SpendingSummary) string {
	var b strings.Builder
	b.WriteString("Based on this financial data, provide 3-4 personalized, actionable tips to help the user improve their financial health.\n\n")
	b.WriteString("User's monthly spending summary:\n")
	b.WriteString(summaryContext(sum, summaryTopCategories))
	b.WriteString("\nFormat each tip as:\n")
	b.WriteString("- Type: tip/warning/achievement\n")
	b.WriteString("- Title: Brief title (max 50 chars)\n")
	b.WriteString("- Description: Helpful advice (max 150 chars)\n")
	b.WriteString("- Priority: low/medium/high\n\n")
	b.WriteString("Return tips as a simple list, one per line.\n")
	return b.String()
}

// Tips returns generated advice for the current month. Generation problems
// never reach the caller: they degrade to FallbackTips.
func (s *InsightService) Tips(ctx context.Context, ownerID string) ([]core.Insight, error) {
	sum, err := s.Summary(ctx, ownerID, core.Monthly)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	if s.generator == nil {
		return FallbackTips(now), nil
	}

	reply, err := s.generator.Generate(ctx, TipsPrompt(sum))
	if err != nil {
		slog.WarnContext(ctx, "Tip generation failed, serving fallback tips", "error", err)
		return FallbackTips(now), nil
	}

	tips := ParseTips(reply, now)
	if len(tips) == 0 {
		slog.WarnContext(ctx, "Tip generation reply had no tips, serving fallback tips", "reply_len", len(reply))
		return FallbackTips(now), nil
	}
	return tips, nil
}

// Chat forwards the conversation with a snapshot of the owner's finances
// and returns the reply verbatim.
func (s *InsightService) Chat(ctx context.Context, ownerID, message string, history []core.ChatMessage) (core.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return core.ChatReply{}, core.BadRequestf("message is required")
	}
	for _, m := range history {
		if m.Role != core.RoleUser && m.Role != core.RoleAssistant {
			return core.ChatReply{}, core.BadRequestf("invalid chat role %q", m.Role)
		}
	}

	sum, err := s.Summary(ctx, ownerID, core.Monthly)
	if err != nil {
		return core.ChatReply{}, err
	}

	if s.generator == nil {
		return core.ChatReply{}, fmt.Errorf("%w: chat is not configured", core.ErrUpstream)
	}

	snapshot := "User's financial snapshot:\n" + summaryContext(sum, chatTopCategories)
	reply, err := s.generator.Chat(ctx, history, message, snapshot)
	if err != nil {
		return core.ChatReply{}, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}

	return core.ChatReply{Message: reply, Timestamp: s.clock.now()}, nil
}

// Predict estimates next month's spend as the trailing 90 days divided by
// three. The confidence is a fixed placeholder.
func (s *InsightService) Predict(ctx context.Context, ownerID string) (core.SpendingPrediction, error) {
	today := s.clock.today()
	window := core.Window{Start: today.AddDays(-predictionLookbackDays), End: today}

	expenses, err := s.expenses(ctx, ownerID, window)
	if err != nil {
		return core.SpendingPrediction{}, err
	}
	agg := Aggregate(expenses)

	breakdown := make([]core.CategoryPrediction, 0, len(agg.Categories))
	for _, c := range agg.Categories {
		breakdown = append(breakdown, core.CategoryPrediction{
			CategoryID:      c.CategoryID,
			CategoryName:    c.Name,
			PredictedAmount: DivideMoney(c.Total, predictionMonths),
		})
	}

	return core.SpendingPrediction{
		Period:          core.NextMonthStart(today).Format("January 2006"),
		PredictedAmount: DivideMoney(agg.Total, predictionMonths),
		Confidence:      predictionConfidence,
		Breakdown:       breakdown,
	}, nil
}
