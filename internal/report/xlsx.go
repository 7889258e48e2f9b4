package report

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

type XLSXRenderer struct{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Extension() string { return "xlsx" }

func (XLSXRenderer) Render(w io.Writer, data Financial) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headers := []interface{}{"Date", "Client", "Method", "Reference", "Amount"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", bold); err != nil {
		return err
	}

	for i, t := range data.Transactions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		amount, _ := t.Amount.Float64()
		row := []interface{}{t.Date.Format(pdfDateFormat), t.ClientName, t.Method, t.Reference, amount}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(4, len(data.Transactions)+2)
	if err != nil {
		return err
	}
	total, _ := data.Total.Float64()
	totalRow := []interface{}{"Total", total}
	if err := f.SetSheetRow(sheetName, totalCell, &totalRow); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 30); err != nil {
		return err
	}

	return f.Write(w)
}
