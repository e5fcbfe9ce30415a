package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ReportService builds period reports and export documents.
type ReportService struct {
	store  storage.ExpenseStore
	sheets sheets.RowExporter
}

// NewReportService creates the service. exporter may be nil, in which case
// the sheets format is rejected.
func NewReportService(store storage.ExpenseStore, exporter sheets.RowExporter) *ReportService {
	return &ReportService{store: store, sheets: exporter}
}

// ParseRange validates a YYYY-MM-DD date range before any query runs.
func ParseRange(start, end string) (core.Window, error) {
	from, err := core.ParseDate(start)
	if err != nil {
		return core.Window{}, core.BadRequestf("invalid start_date %q", start)
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return core.Window{}, core.BadRequestf("invalid end_date %q", end)
	}
	if to.Before(from.Time) {
		return core.Window{}, core.BadRequestf("end_date must not be before start_date")
	}
	return core.Window{Start: from, End: to}, nil
}

func (s *ReportService) expenses(ctx context.Context, ownerID string, w core.Window) ([]core.Expense, error) {
	f := storage.InRange(ownerID, w)
	f.OrderBy = storage.OrderByDate
	es, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses %s to %s: %w", w.Start, w.End, err)
	}
	return es, nil
}

func periodLabel(w core.Window) string {
	return fmt.Sprintf("%s to %s", w.Start, w.End)
}

// MonthlyReport buckets spend by calendar month. Income is not tracked, so
// every bucket's net balance is the negated spend.
func (s *ReportService) MonthlyReport(ctx context.Context, ownerID string, w core.Window) (core.MonthlyReport, error) {
	es, err := s.expenses(ctx, ownerID, w)
	if err != nil {
		return core.MonthlyReport{}, err
	}

	buckets := GroupByMonth(es)
	report := core.MonthlyReport{
		Period: periodLabel(w),
		Data:   make([]core.MonthlyReportItem, 0, len(buckets)),
	}
	for _, b := range buckets {
		report.Data = append(report.Data, core.MonthlyReportItem{
			Month:            b.Month,
			TotalSpent:       b.Total,
			NetBalance:       core.Money{}.Sub(b.Total),
			TransactionCount: b.Count,
		})
		report.TotalSpent = report.TotalSpent.Add(b.Total)
	}
	report.AverageMonthlySpending = DivideMoney(report.TotalSpent, len(buckets))
	return report, nil
}

// CategoryReport returns the full per-category breakdown for the range.
func (s *ReportService) CategoryReport(ctx context.Context, ownerID string, w core.Window) (core.CategoryReport, error) {
	es, err := s.expenses(ctx, ownerID, w)
	if err != nil {
		return core.CategoryReport{}, err
	}

	agg := Aggregate(es)
	report := core.CategoryReport{
		Period:     periodLabel(w),
		Breakdown:  make([]core.CategoryReportItem, 0, len(agg.Categories)),
		TotalSpent: agg.Total,
	}
	for _, c := range agg.Categories {
		report.Breakdown = append(report.Breakdown, core.CategoryReportItem{
			CategoryID:            c.CategoryID,
			CategoryName:          c.Name,
			CategoryColor:         c.Color,
			CategoryIcon:          c.Icon,
			TotalAmount:           c.Total,
			Percentage:            c.Percentage,
			TransactionCount:      c.Count,
			AveragePerTransaction: DivideMoney(c.Total, c.Count),
		})
	}
	return report, nil
}

// ExportResult is either a rendered document or, for the sheets format, the
// spreadsheet range that received the rows.
type ExportResult struct {
	Document *export.Document
	Range    string
	Rows     int
}

// Export renders the range's expenses, newest first, in the given format.
func (s *ReportService) Export(ctx context.Context, ownerID string, format export.Format, w core.Window) (ExportResult, error) {
	if format == export.FormatSheets && s.sheets == nil {
		return ExportResult{}, core.BadRequestf("sheets export is not configured")
	}

	es, err := s.expenses(ctx, ownerID, w)
	if err != nil {
		return ExportResult{}, err
	}
	rows := export.RowsFromExpenses(es)
	title := export.Title(w.Start, w.End)

	var doc export.Document
	switch format {
	case export.FormatCSV:
		body, err := export.RenderCSV(rows)
		if err != nil {
			return ExportResult{}, err
		}
		doc = export.Document{Filename: export.Filename(w.Start, w.End, "csv"), ContentType: "text/csv", Body: body}
	case export.FormatPDF:
		body, err := export.RenderPDF(title, rows)
		if err != nil {
			return ExportResult{}, err
		}
		doc = export.Document{Filename: export.Filename(w.Start, w.End, "pdf"), ContentType: "application/pdf", Body: body}
	case export.FormatSheets:
		ref, err := s.sheets.ExportRows(ctx, title, rows)
		if err != nil {
			return ExportResult{}, fmt.Errorf("%w: sheets export: %w", core.ErrUpstream, err)
		}
		return ExportResult{Range: ref, Rows: len(rows)}, nil
	default:
		return ExportResult{}, core.BadRequestf("unsupported export format %q", format)
	}

	slog.InfoContext(ctx, "Expenses exported", "format", format, "rows", len(rows), "bytes", len(doc.Body))
	return ExportResult{Document: &doc, Rows: len(rows)}, nil
}
