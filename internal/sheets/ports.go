// Package sheets defines the spreadsheet export port and its adapters.
package sheets

import (
	"context"

	"fintrack/internal/export"
)

// Ports for outbound adapters.
type (
	// RowExporter appends an expense report to a spreadsheet.
	RowExporter interface {
		// ExportRows writes a title line, a header and one line per row.
		// It returns the spreadsheet range that was written.
		ExportRows(ctx context.Context, title string, rows []export.Row) (rangeRef string, err error)
	}
)

// Header is the column header written above exported rows.
var Header = []string{"Date", "Category", "Description", "Amount", "Payment Method"}

// Values lays out a report as spreadsheet cells: title, header, rows.
func Values(title string, rows []export.Row) [][]any {
	out := make([][]any, 0, len(rows)+2)
	out = append(out, []any{title})

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)

	for _, r := range rows {
		out = append(out, []any{r.Date, r.Category, r.Description, r.Amount.Float(), r.PaymentMethod})
	}
	return out
}
