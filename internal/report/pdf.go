package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfDateFormat = "2006-01-02"

type PDFRenderer struct{}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Extension() string { return "pdf" }

// Render lays the report out as a single table with a total row.
func (PDFRenderer) Render(w io.Writer, data Financial) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(data.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(data.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s", data.From, data.To), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{30, 70, 30, 30, 30}
	headers := []string{"Date", "Client", "Method", "Reference", "Amount"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "L"
		if i == len(headers)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range data.Transactions {
		pdf.CellFormat(widths[0], 7, t.Date.Format(pdfDateFormat), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(t.ClientName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(t.Method), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(t.Reference), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 7, t.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, fmt.Sprintf("Total (%d transactions)", len(data.Transactions)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, data.Total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}
