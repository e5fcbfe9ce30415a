package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var csvHeader = []string{"Date", "Category", "Description", "Amount", "Payment Method"}

// RenderCSV writes a header row followed by one row per expense.
func RenderCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Date, r.Category, r.Description, r.Amount.String(), r.PaymentMethod}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
