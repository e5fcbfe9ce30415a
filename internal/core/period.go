// Package core provides the domain model shared by every layer.
//
// This file implements period boundary resolution. Each period kind has its
// own resolver strategy registered in a lookup table, so adding a kind means
// adding one type and one registry entry.
package core

import (
	"fmt"
	"strings"
)

const (
	Weekly  PeriodKind = "weekly"
	Monthly PeriodKind = "monthly"
	Yearly  PeriodKind = "yearly"
)

// PeriodKind is the repetition unit of a budget or summary.
type PeriodKind string

func (k PeriodKind) IsValid() bool {
	_, ok := periodResolvers[k]
	return ok
}

// ParsePeriod accepts both the adjective and the noun form ("monthly", "month").
func ParsePeriod(s string) (PeriodKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Window is an inclusive calendar date range.
type Window struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start.Time) && !d.After(w.End.Time)
}

// PeriodResolver is the strategy interface for one period kind.
type PeriodResolver interface {
	// Anchored returns the window containing ref, aligned to anchor where the kind supports it.
	Anchored(anchor, ref Date) Window
	// Calendar returns the calendar window containing ref.
	Calendar(ref Date) Window
	// Previous returns the calendar window immediately before Calendar(ref).
	Previous(ref Date) Window
}

// WeeklyResolver splits time into 7-day blocks.
type WeeklyResolver struct{}

// Anchored returns the 7-day block starting on anchor + 7k that contains ref.
// References before the anchor resolve to earlier blocks.
func (WeeklyResolver) Anchored(anchor, ref Date) Window {
	days := daysBetween(anchor, ref)
	start := anchor.AddDays(7 * floorDiv(days, 7))
	return Window{Start: start, End: start.AddDays(6)}
}

// Calendar returns the Monday-started week containing ref.
func (WeeklyResolver) Calendar(ref Date) Window {
	offset := (int(ref.Weekday()) + 6) % 7
	start := ref.AddDays(-offset)
	return Window{Start: start, End: start.AddDays(6)}
}

func (r WeeklyResolver) Previous(ref Date) Window {
	cur := r.Calendar(ref)
	return Window{Start: cur.Start.AddDays(-7), End: cur.Start.AddDays(-1)}
}

// MonthlyResolver uses calendar months.
type MonthlyResolver struct{}

// Anchored ignores the anchor: monthly budgets always follow the calendar.
func (r MonthlyResolver) Anchored(_, ref Date) Window {
	return r.Calendar(ref)
}

func (MonthlyResolver) Calendar(ref Date) Window {
	return monthWindow(ref.Year(), ref.Month())
}

func (MonthlyResolver) Previous(ref Date) Window {
	// Day 0 of the current month is the last day of the previous one.
	last := NewDate(ref.Year(), ref.Month(), 0)
	return monthWindow(last.Year(), last.Month())
}

// YearlyResolver uses calendar years.
type YearlyResolver struct{}

func (r YearlyResolver) Anchored(_, ref Date) Window {
	return r.Calendar(ref)
}

func (YearlyResolver) Calendar(ref Date) Window {
	return Window{Start: NewDate(ref.Year(), 1, 1), End: NewDate(ref.Year(), 12, 31)}
}

func (YearlyResolver) Previous(ref Date) Window {
	y := ref.Year() - 1
	return Window{Start: NewDate(y, 1, 1), End: NewDate(y, 12, 31)}
}

var periodResolvers = map[PeriodKind]PeriodResolver{
	Weekly:  WeeklyResolver{},
	Monthly: MonthlyResolver{},
	Yearly:  YearlyResolver{},
}

// GetPeriodResolver returns the resolver for kind.
func GetPeriodResolver(kind PeriodKind) (PeriodResolver, error) {
	r, ok := periodResolvers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, kind)
	}
	return r, nil
}

// ResolvePeriod returns the budget window of kind containing ref.
func ResolvePeriod(kind PeriodKind, anchor, ref Date) (Window, error) {
	r, err := GetPeriodResolver(kind)
	if err != nil {
		return Window{}, err
	}
	return r.Anchored(anchor, ref), nil
}

// ResolveCalendar returns the calendar window of kind containing ref.
func ResolveCalendar(kind PeriodKind, ref Date) (Window, error) {
	r, err := GetPeriodResolver(kind)
	if err != nil {
		return Window{}, err
	}
	return r.Calendar(ref), nil
}

// ResolvePrevious returns the calendar window preceding ResolveCalendar(kind, ref).
func ResolvePrevious(kind PeriodKind, ref Date) (Window, error) {
	r, err := GetPeriodResolver(kind)
	if err != nil {
		return Window{}, err
	}
	return r.Previous(ref), nil
}

// NextMonthStart returns the first day of the month after ref.
func NextMonthStart(ref Date) Date {
	return NewDate(ref.Year(), ref.Month()+1, 1)
}

func monthWindow(year, month int) Window {
	return Window{
		Start: NewDate(year, month, 1),
		End:   NewDate(year, month+1, 0),
	}
}

func daysBetween(from, to Date) int {
	// Both dates sit at UTC midnight so the difference is a whole number of days.
	return int(to.Sub(from.Time).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
