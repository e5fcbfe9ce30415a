package core

import "time"

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type Trend string

// CategorySpending is one category bucket of an aggregation.
type CategorySpending struct {
	CategoryID       string  `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	CategoryColor    string  `json:"category_color"`
	CategoryIcon     string  `json:"category_icon"`
	Amount           Money   `json:"amount"`
	Percentage       float64 `json:"percentage"`
	TransactionCount int     `json:"transaction_count"`
}

type SpendingComparison struct {
	PreviousPeriod   Money   `json:"previous_period"`
	ChangePercentage float64 `json:"change_percentage"`
	Trend            Trend   `json:"trend"`
}

type SpendingSummary struct {
	Period        PeriodKind         `json:"period"`
	StartDate     Date               `json:"start_date"`
	EndDate       Date               `json:"end_date"`
	TotalSpent    Money              `json:"total_spent"`
	TotalIncome   Money              `json:"total_income"`
	NetBalance    Money              `json:"net_balance"`
	TopCategories []CategorySpending `json:"top_categories"`
	Comparison    SpendingComparison `json:"comparison"`
}

type BudgetStatus struct {
	Budget       Budget  `json:"budget"`
	Spent        Money   `json:"spent"`
	Remaining    Money   `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	IsOverBudget bool    `json:"is_over_budget"`
	IsNearLimit  bool    `json:"is_near_limit"`
	PeriodStart  Date    `json:"period_start"`
	PeriodEnd    Date    `json:"period_end"`
}

type CategoryPrediction struct {
	CategoryID      string `json:"category_id"`
	CategoryName    string `json:"category_name"`
	PredictedAmount Money  `json:"predicted_amount"`
}

type SpendingPrediction struct {
	Period          string               `json:"period"`
	PredictedAmount Money                `json:"predicted_amount"`
	Confidence      float64              `json:"confidence"`
	Breakdown       []CategoryPrediction `json:"breakdown"`
}

type MonthlyReportItem struct {
	Month            string `json:"month"`
	TotalSpent       Money  `json:"total_spent"`
	TotalIncome      Money  `json:"total_income"`
	NetBalance       Money  `json:"net_balance"`
	TransactionCount int    `json:"transaction_count"`
}

type MonthlyReport struct {
	Period                 string              `json:"period"`
	Data                   []MonthlyReportItem `json:"data"`
	TotalSpent             Money               `json:"total_spent"`
	TotalIncome            Money               `json:"total_income"`
	AverageMonthlySpending Money               `json:"average_monthly_spending"`
}

type CategoryReportItem struct {
	CategoryID            string  `json:"category_id"`
	CategoryName          string  `json:"category_name"`
	CategoryColor         string  `json:"category_color"`
	CategoryIcon          string  `json:"category_icon"`
	TotalAmount           Money   `json:"total_amount"`
	Percentage            float64 `json:"percentage"`
	TransactionCount      int     `json:"transaction_count"`
	AveragePerTransaction Money   `json:"average_per_transaction"`
}

type CategoryReport struct {
	Period     string               `json:"period"`
	Breakdown  []CategoryReportItem `json:"breakdown"`
	TotalSpent Money                `json:"total_spent"`
}

const (
	InsightTip         InsightType = "tip"
	InsightWarning     InsightType = "warning"
	InsightAchievement InsightType = "achievement"
	InsightPrediction  InsightType = "prediction"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type (
	InsightType string
	Priority    string
)

// Insight is a short piece of advice shown to the user.
type Insight struct {
	ID          string      `json:"id"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	CreatedAt   time.Time   `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
