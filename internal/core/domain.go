package core

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDescriptionLen  = 200
	MaxCategoryNameLen = 30
	MaxGoalNameLen     = 50
	MaxNoteLen         = 100

	DefaultAlertThreshold = 80

	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"

	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

type (
	CategoryKind string
	GoalStatus   string

	// Date is a calendar date stored at UTC midnight.
	Date struct {
		time.Time
	}

	// CategoryInfo is the display data joined onto transactions and budgets.
	CategoryInfo struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	Expense struct {
		ID            string        `json:"id"`
		OwnerID       string        `json:"user_id"`
		CategoryID    string        `json:"category_id"`
		Amount        Money         `json:"amount"`
		Description   string        `json:"description"`
		Date          Date          `json:"date"`
		PaymentMethod string        `json:"payment_method"`
		CreatedAt     time.Time     `json:"created_at"`
		UpdatedAt     time.Time     `json:"updated_at"`
		Category      *CategoryInfo `json:"category"`
	}

	Category struct {
		ID        string       `json:"id"`
		OwnerID   string       `json:"user_id"`
		Name      string       `json:"name"`
		Icon      string       `json:"icon"`
		Color     string       `json:"color"`
		Kind      CategoryKind `json:"type"`
		IsDefault bool         `json:"is_default"`
		CreatedAt time.Time    `json:"created_at"`
	}

	Budget struct {
		ID             string        `json:"id"`
		OwnerID        string        `json:"user_id"`
		CategoryID     string        `json:"category_id,omitempty"`
		Amount         Money         `json:"amount"`
		Period         PeriodKind    `json:"period"`
		StartDate      Date          `json:"start_date"`
		AlertThreshold int           `json:"alert_threshold"`
		CreatedAt      time.Time     `json:"created_at"`
		UpdatedAt      time.Time     `json:"updated_at"`
		Category       *CategoryInfo `json:"category"`
	}

	Goal struct {
		ID            string     `json:"id"`
		OwnerID       string     `json:"user_id"`
		Name          string     `json:"name"`
		TargetAmount  Money      `json:"target_amount"`
		CurrentAmount Money      `json:"current_amount"`
		Deadline      Date       `json:"deadline"`
		Icon          string     `json:"icon"`
		Color         string     `json:"color"`
		Status        GoalStatus `json:"status"`
		CreatedAt     time.Time  `json:"created_at"`
		UpdatedAt     time.Time  `json:"updated_at"`
	}

	// Contribution is an append-only deposit towards a goal.
	Contribution struct {
		ID        string    `json:"id"`
		GoalID    string    `json:"goal_id"`
		Amount    Money     `json:"amount"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, BadRequestf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date n days later (earlier when negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return BadRequestf("payment method is required")
	}
	return nil
}

// ValidateDescription checks the description is present and at most 200 characters.
func ValidateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (k CategoryKind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

func (c Category) Validate() error {
	if err := ValidateCategoryName(c.Name); err != nil {
		return err
	}
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}

// ValidateCategoryName checks the name is present and at most 30 characters.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return ErrNameTooLong
	}
	return nil
}

// Info returns the display data of the category.
func (c Category) Info() *CategoryInfo {
	return &CategoryInfo{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	return ValidateThreshold(b.AlertThreshold)
}

// ValidateThreshold checks an alert threshold percentage.
func ValidateThreshold(t int) error {
	if t < 1 || t > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalCancelled:
		return true
	}
	return false
}

func (g Goal) Validate() error {
	if err := ValidateGoalName(g.Name); err != nil {
		return err
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if err := g.Deadline.Validate(); err != nil {
		return err
	}
	if !g.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateGoalName checks the name is present and at most 50 characters.
func ValidateGoalName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxGoalNameLen {
		return ErrNameTooLong
	}
	return nil
}

func (c Contribution) Validate() error {
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Note) > MaxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}
