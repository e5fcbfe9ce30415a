package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

func TestSheetExportRows(t *testing.T) {
	s := New("")
	rows := []export.Row{
		{Date: "2024-03-02", Category: "Food", Description: "lunch", Amount: core.Money{Cents: 1250}, PaymentMethod: "card"},
		{Date: "2024-03-01", Category: "Unknown", Description: "bus", Amount: core.Money{Cents: 300}},
	}

	ref, err := s.ExportRows(context.Background(), "Expense Report: 2024-03-01 to 2024-03-31", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "Export!A1:E4" {
		t.Fatalf("unexpected ref: %q", ref)
	}

	ref, err = s.ExportRows(context.Background(), "again", nil)
	if err != nil || ref != "Export!A5:E6" {
		t.Fatalf("unexpected second export: ref=%q err=%v", ref, err)
	}

	lines := s.Lines()
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if lines[1][0] != "Date" || lines[2][3] != 12.5 {
		t.Fatalf("unexpected layout: %v", lines[:3])
	}
}
