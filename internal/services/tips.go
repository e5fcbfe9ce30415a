package services

import (
	"bufio"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const (
	MaxTips           = 4
	maxTipTitle       = 50
	maxTipDescription = 150

	defaultTipTitle       = "Financial Tip"
	defaultTipDescription = "Review your spending habits."
)

// FallbackTips is served whenever tip generation fails or yields nothing.
func FallbackTips(now time.Time) []core.Insight {
	return []core.Insight{
		{
			ID:          uuid.New().String(),
			Type:        core.InsightTip,
			Title:       "Track Daily Expenses",
			Description: "Recording expenses daily helps identify spending patterns and areas to save.",
			Priority:    core.PriorityMedium,
			CreatedAt:   now,
		},
		{
			ID:          uuid.New().String(),
			Type:        core.InsightTip,
			Title:       "Set Category Budgets",
			Description: "Create budgets for your top spending categories to stay on track.",
			Priority:    core.PriorityHigh,
			CreatedAt:   now,
		},
	}
}

// tipDraft collects the fields of one tip while parsing.
type tipDraft struct {
	typ, title, description, priority string
	touched                           bool
}

func (d tipDraft) build(now time.Time) core.Insight {
	tip := core.Insight{
		ID:          uuid.New().String(),
		Type:        core.InsightTip,
		Title:       defaultTipTitle,
		Description: defaultTipDescription,
		Priority:    core.PriorityMedium,
		CreatedAt:   now,
	}
	switch t := core.InsightType(strings.ToLower(d.typ)); t {
	case core.InsightTip, core.InsightWarning, core.InsightAchievement, core.InsightPrediction:
		tip.Type = t
	}
	switch p := core.Priority(strings.ToLower(d.priority)); p {
	case core.PriorityLow, core.PriorityMedium, core.PriorityHigh:
		tip.Priority = p
	}
	if d.title != "" {
		tip.Title = truncateRunes(d.title, maxTipTitle)
	}
	if d.description != "" {
		tip.Description = truncateRunes(d.description, maxTipDescription)
	}
	return tip
}

// ParseTips extracts at most MaxTips tips from a free-text reply of
// "Type: / Title: / Description: / Priority:" lines. Markers are
// case-insensitive, leading bullets are ignored and unrecognised lines are
// skipped. An empty or unparseable reply yields an empty slice.
func ParseTips(reply string, now time.Time) []core.Insight {
	tips := []core.Insight{}
	var cur tipDraft

	flush := func() {
		if cur.touched && len(tips) < MaxTips {
			tips = append(tips, cur.build(now))
		}
		cur = tipDraft{}
	}

	sc := bufio.NewScanner(strings.NewReader(reply))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• "))
		if line == "" {
			continue
		}

		marker, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(value, "\"* \t")

		switch strings.ToLower(strings.Trim(strings.TrimSpace(marker), "*")) {
		case "type":
			flush()
			cur.typ = value
			cur.touched = true
		case "title":
			cur.title = value
			cur.touched = true
		case "description":
			cur.description = value
			cur.touched = true
		case "priority":
			cur.priority = value
			cur.touched = true
		}
	}
	flush()

	return tips
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
