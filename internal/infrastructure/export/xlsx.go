package export

import (
	"io"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSX layout
const (
	SheetName       = "Risk Report"
	anchorColumn    = 1
	customerWidth   = 45.0
	amountWidth     = 18.0
	moneyNumFmt     = "#,##0.00"
	headerRowOffset = 2
)

// XLSXExporter writes reports as Excel workbooks
type XLSXExporter struct {
	sheet string
}

// NewXLSXExporter creates an XLSXExporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{sheet: SheetName}
}

// Format implements risk.Exporter
func (e *XLSXExporter) Format() string {
	return "xlsx"
}

// ContentType implements risk.Exporter
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type xlsxStyles struct {
	title  int
	header int
	money  int
	total  int
	label  int
}

// Export implements risk.Exporter
func (e *XLSXExporter) Export(w io.Writer, report *risk.Report) error {
	if err := checkReport(report); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheet); err != nil {
		return newBuildError("failed to name sheet", err)
	}
	styles, err := e.newStyles(f)
	if err != nil {
		return newBuildError("failed to create styles", err)
	}

	row := 1
	if err := e.setText(f, row, anchorColumn, report.Name, styles.title); err != nil {
		return err
	}
	row++
	if err := e.setText(f, row, anchorColumn, AsOfLine(report.ReferenceDate), 0); err != nil {
		return err
	}
	if line := SelectedCustomersLine(report.SelectedCustomerNames()); line != "" {
		row++
		if err := e.setText(f, row, anchorColumn, line, 0); err != nil {
			return err
		}
	}

	row += headerRowOffset
	for i, h := range Headers {
		if err := e.setText(f, row, anchorColumn+i, h, styles.header); err != nil {
			return err
		}
	}

	for _, r := range report.Rows {
		row++
		if err := e.setText(f, row, anchorColumn, r.Customer.DisplayName(), 0); err != nil {
			return err
		}
		if err := e.setAmounts(f, row, rowValues(r), styles.money); err != nil {
			return err
		}
	}

	if len(report.Rows) > 0 {
		row++
		if err := e.setText(f, row, anchorColumn, TotalsLabel, styles.label); err != nil {
			return err
		}
		if err := e.setAmounts(f, row, totalValues(report.Totals()), styles.total); err != nil {
			return err
		}
	}

	if err := e.setWidths(f); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return newWriteError(err)
	}
	return nil
}

func (e *XLSXExporter) newStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	moneyFmt := moneyNumFmt
	border := []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       border,
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return s, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: border,
	}); err != nil {
		return s, err
	}
	return s, nil
}

func (e *XLSXExporter) setText(f *excelize.File, row, col int, value string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return newBuildError("invalid cell", err)
	}
	if err := f.SetCellStr(e.sheet, cell, value); err != nil {
		return newBuildError("failed to set cell "+cell, err)
	}
	if style != 0 {
		if err := f.SetCellStyle(e.sheet, cell, cell, style); err != nil {
			return newBuildError("failed to style cell "+cell, err)
		}
	}
	return nil
}

func (e *XLSXExporter) setAmounts(f *excelize.File, row int, values []decimal.Decimal, style int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(anchorColumn+1+i, row)
		if err != nil {
			return newBuildError("invalid cell", err)
		}
		if err := f.SetCellFloat(e.sheet, cell, v.InexactFloat64(), -1, 64); err != nil {
			return newBuildError("failed to set cell "+cell, err)
		}
		if err := f.SetCellStyle(e.sheet, cell, cell, style); err != nil {
			return newBuildError("failed to style cell "+cell, err)
		}
	}
	return nil
}

func (e *XLSXExporter) setWidths(f *excelize.File) error {
	first, err := excelize.ColumnNumberToName(anchorColumn)
	if err != nil {
		return newBuildError("invalid column", err)
	}
	second, err := excelize.ColumnNumberToName(anchorColumn + 1)
	if err != nil {
		return newBuildError("invalid column", err)
	}
	last, err := excelize.ColumnNumberToName(anchorColumn + len(Headers) - 1)
	if err != nil {
		return newBuildError("invalid column", err)
	}
	if err := f.SetColWidth(e.sheet, first, first, customerWidth); err != nil {
		return newBuildError("failed to set column width", err)
	}
	if err := f.SetColWidth(e.sheet, second, last, amountWidth); err != nil {
		return newBuildError("failed to set column width", err)
	}
	return nil
}
