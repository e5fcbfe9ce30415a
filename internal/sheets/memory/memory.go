// Package memory is an in-process spreadsheet used when no Google
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/export"
	"fintrack/internal/sheets"
)

var _ sheets.RowExporter = (*Sheet)(nil)

type Sheet struct {
	mu    sync.Mutex
	name  string
	lines [][]any
}

func New(name string) *Sheet {
	if name == "" {
		name = "Export"
	}
	return &Sheet{name: name}
}

// ExportRows appends the report and returns an A1 range for the new lines.
func (s *Sheet) ExportRows(_ context.Context, title string, rows []export.Row) (string, error) {
	values := sheets.Values(title, rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.lines) + 1
	s.lines = append(s.lines, values...)
	return fmt.Sprintf("%s!A%d:E%d", s.name, first, len(s.lines)), nil
}

// Lines returns a copy of everything written so far.
func (s *Sheet) Lines() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.lines...)
}
