package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Transaction is one settled payment line of a financial report.
type Transaction struct {
	ClientName string
	Amount     decimal.Decimal
	Date       time.Time
	Method     string
	Reference  string
}

type Financial struct {
	Title        string
	From         string
	To           string
	Transactions []Transaction
	Total        decimal.Decimal
}

// Renderer streams a financial report in one binary format.
type Renderer interface {
	Render(w io.Writer, data Financial) error
	ContentType() string
	Extension() string
}

// ParseFormat accepts the report formats served over HTTP. An empty value
// means JSON.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported report format %q", value)
}

// RendererFor returns the renderer of a binary format. JSON has none.
func RendererFor(format Format) (Renderer, bool) {
	switch format {
	case FormatPDF:
		return PDFRenderer{}, true
	case FormatXLSX:
		return XLSXRenderer{}, true
	}
	return nil, false
}

// FileName is the download name of a report covering from..to.
func FileName(data Financial, r Renderer) string {
	return fmt.Sprintf("financial-report_%s_%s.%s", data.From, data.To, r.Extension())
}
