package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const maxPDFDescription = 30

var (
	pdfHeader = []string{"Date", "Category", "Description", "Amount"}
	pdfWidths = []float64{30, 50, 80, 35}
)

// RenderPDF produces a Letter-sized report: heading, total line and a grid
// table. Descriptions longer than 30 characters are cut with "...".
func RenderPDF(title string, rows []Row) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Total Expenses: "+FormatDollars(Total(rows)), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		for i, h := range pdfHeader {
			pdf.CellFormat(pdfWidths[i], 9, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range rows {
		if pdf.GetY()+7 > pageHeight-bottom-15 {
			pdf.AddPage()
			writeHeader()
		}
		cells := []string{r.Date, r.Category, TruncateDescription(r.Description), FormatDollars(r.Amount)}
		for i, c := range cells {
			pdf.CellFormat(pdfWidths[i], 7, tr(c), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// TruncateDescription shortens s to 30 characters plus "..." when longer.
func TruncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= maxPDFDescription {
		return s
	}
	return string(r[:maxPDFDescription]) + "..."
}
