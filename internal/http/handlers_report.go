package http

import (
	"net/http"

	"fintrack/internal/export"
)

type sheetsExport struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request, ownerID string) error {
	window, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		return err
	}
	report, err := s.svc.Reports.MonthlyReport(r.Context(), ownerID, window)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(report).Write(w)
	return nil
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request, ownerID string) error {
	window, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		return err
	}
	report, err := s.svc.Reports.CategoryReport(r.Context(), ownerID, window)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(report).Write(w)
	return nil
}

// handleExport streams csv and pdf as attachments. The sheets format answers
// with the appended range instead.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, ownerID string) error {
	query := r.URL.Query()
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		return err
	}
	window, err := ParseRangeParams(query)
	if err != nil {
		return err
	}

	res, err := s.svc.Reports.Export(r.Context(), ownerID, format, window)
	if err != nil {
		return err
	}

	if res.Document != nil {
		writeDocument(w, res.Document)
		return nil
	}
	NewJSONResponse().
		Data(sheetsExport{Range: res.Range, Rows: res.Rows}).
		Message("Expenses exported to Google Sheets").
		Write(w)
	return nil
}
