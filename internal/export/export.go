// Package export renders expense rows into downloadable documents.
package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fintrack/internal/core"
)

// Format is a document type accepted by the export endpoint.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatPDF    Format = "pdf"
	FormatSheets Format = "sheets"
)

// ParseFormat validates a caller-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF, FormatSheets:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", core.BadRequestf("unsupported export format %q", s)
}

// Row is one exported expense.
type Row struct {
	Date          string
	Category      string
	Description   string
	Amount        core.Money
	PaymentMethod string
}

// RowsFromExpenses flattens expenses, naming missing categories "Unknown".
func RowsFromExpenses(expenses []core.Expense) []Row {
	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		category := "Unknown"
		if e.Category != nil {
			category = e.Category.Name
		}
		rows = append(rows, Row{
			Date:          e.Date.String(),
			Category:      category,
			Description:   e.Description,
			Amount:        e.Amount,
			PaymentMethod: e.PaymentMethod,
		})
	}
	return rows
}

// Total sums the amounts of rows.
func Total(rows []Row) core.Money {
	var total core.Money
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// Document is a rendered export.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Filename stamps the export with the queried date range.
func Filename(start, end core.Date, ext string) string {
	return fmt.Sprintf("expenses_%s_to_%s.%s", start, end, ext)
}

// Title is the heading shared by every document format.
func Title(start, end core.Date) string {
	return fmt.Sprintf("Expense Report: %s to %s", start, end)
}

var printer = message.NewPrinter(language.English)

// FormatDollars renders an amount with thousands separators, e.g. "$1,234.50".
func FormatDollars(m core.Money) string {
	return printer.Sprintf("$%.2f", m.Float())
}
