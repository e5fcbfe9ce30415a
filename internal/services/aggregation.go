package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Display data for transactions whose category is missing or was deleted.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#6b7280"
	UnknownCategoryIcon  = "📦"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is one category bucket of an Aggregation.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Color      string
	Icon       string
	Total      core.Money
	Count      int
	Percentage float64
}

// Aggregation sums a set of transactions overall and per category.
// Categories are sorted by total descending; ties keep first-seen order.
type Aggregation struct {
	Total      core.Money
	Count      int
	Categories []CategoryTotal
}

// Aggregate buckets expenses by category. The input must already be
// filtered to one owner and date range.
func Aggregate(expenses []core.Expense) Aggregation {
	var agg Aggregation
	index := make(map[string]int)

	for _, e := range expenses {
		agg.Total = agg.Total.Add(e.Amount)
		agg.Count++

		i, ok := index[e.CategoryID]
		if !ok {
			i = len(agg.Categories)
			index[e.CategoryID] = i
			agg.Categories = append(agg.Categories, newCategoryTotal(e))
		}
		agg.Categories[i].Total = agg.Categories[i].Total.Add(e.Amount)
		agg.Categories[i].Count++
	}

	for i := range agg.Categories {
		agg.Categories[i].Percentage = Percentage(agg.Categories[i].Total, agg.Total)
	}

	slices.SortStableFunc(agg.Categories, func(a, b CategoryTotal) int {
		switch {
		case a.Total.Cents > b.Total.Cents:
			return -1
		case a.Total.Cents < b.Total.Cents:
			return 1
		}
		return 0
	})

	return agg
}

func newCategoryTotal(e core.Expense) CategoryTotal {
	ct := CategoryTotal{
		CategoryID: e.CategoryID,
		Name:       UnknownCategoryName,
		Color:      UnknownCategoryColor,
		Icon:       UnknownCategoryIcon,
	}
	if e.Category != nil {
		ct.Name = e.Category.Name
		ct.Color = e.Category.Color
		ct.Icon = e.Category.Icon
	}
	return ct
}

// Spending converts the bucket to its API shape.
func (c CategoryTotal) Spending() core.CategorySpending {
	return core.CategorySpending{
		CategoryID:       c.CategoryID,
		CategoryName:     c.Name,
		CategoryColor:    c.Color,
		CategoryIcon:     c.Icon,
		Amount:           c.Total,
		Percentage:       c.Percentage,
		TransactionCount: c.Count,
	}
}

// Top returns at most n categories.
func (a Aggregation) Top(n int) []CategoryTotal {
	if len(a.Categories) <= n {
		return a.Categories
	}
	return a.Categories[:n]
}

// Percentage returns part/total*100 rounded half-up to 2 decimals, or 0 when
// total is zero.
func Percentage(part, total core.Money) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Decimal().Div(total.Decimal()).Mul(hundred).Round(2).InexactFloat64()
}

// ChangePercentage returns the relative change from previous to current in
// percent, or 0 when previous is zero.
func ChangePercentage(current, previous core.Money) float64 {
	if previous.IsZero() {
		return 0
	}
	return Percentage(current.Sub(previous), previous)
}

// DivideMoney splits total into n equal parts rounded to cents. It returns
// zero for n <= 0.
func DivideMoney(total core.Money, n int) core.Money {
	if n <= 0 {
		return core.Money{}
	}
	return core.MoneyFromDecimal(total.Decimal().Div(decimal.NewFromInt(int64(n))))
}

// MonthBucket is the spend of one calendar month.
type MonthBucket struct {
	Month string // YYYY-MM
	Total core.Money
	Count int
}

// GroupByMonth buckets expenses by YYYY-MM, sorted ascending.
func GroupByMonth(expenses []core.Expense) []MonthBucket {
	index := make(map[string]int)
	var buckets []MonthBucket

	for _, e := range expenses {
		key := e.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{Month: key})
		}
		buckets[i].Total = buckets[i].Total.Add(e.Amount)
		buckets[i].Count++
	}

	slices.SortFunc(buckets, func(a, b MonthBucket) int {
		switch {
		case a.Month < b.Month:
			return -1
		case a.Month > b.Month:
			return 1
		}
		return 0
	})
	return buckets
}
