package export

import (
	"io"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PDF layout in millimetres, landscape A4
const (
	pdfMargin        = 10.0
	pdfCustomerWidth = 87.0
	pdfAmountWidth   = 38.0
	pdfLineHeight    = 7.0
)

// PDFExporter writes reports as PDF documents
type PDFExporter struct {
	printer *message.Printer
	now     func() time.Time
}

// NewPDFExporter creates a PDFExporter. Amounts use the thousands separator of lang.
func NewPDFExporter(lang language.Tag) *PDFExporter {
	return &PDFExporter{
		printer: message.NewPrinter(lang),
		now:     time.Now,
	}
}

// Format implements risk.Exporter
func (e *PDFExporter) Format() string {
	return "pdf"
}

// ContentType implements risk.Exporter
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// FormatAmount renders an amount with two decimals and thousands separators
func (e *PDFExporter) FormatAmount(d decimal.Decimal) string {
	return e.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Export implements risk.Exporter
func (e *PDFExporter) Export(w io.Writer, report *risk.Report) error {
	if err := checkReport(report); err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	tableWidth := pdfCustomerWidth + pdfAmountWidth*float64(len(Headers)-1)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(tableWidth/2, 5, "Generated: "+e.now().Format("02/01/2006 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(tableWidth/2, 5, e.printer.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(tableWidth, 10, tr(report.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(tableWidth, 6, AsOfLine(report.ReferenceDate), "", 1, "L", false, 0, "")
	if line := SelectedCustomersLine(report.SelectedCustomerNames()); line != "" {
		pdf.CellFormat(tableWidth, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(217, 217, 217)
		for i, h := range Headers {
			pdf.CellFormat(columnWidth(i), pdfLineHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, r := range report.Rows {
		if pdf.GetY()+pdfLineHeight > pageHeight-2*pdfMargin {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(pdfCustomerWidth, pdfLineHeight, tr(Truncate(r.Customer.DisplayName(), 45)), "1", 0, "L", false, 0, "")
		e.amountCells(pdf, rowValues(r))
	}

	if len(report.Rows) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(pdfCustomerWidth, pdfLineHeight, TotalsLabel, "1", 0, "L", true, 0, "")
		e.amountCells(pdf, totalValues(report.Totals()))
	}

	if pdf.Err() {
		return newBuildError("failed to build pdf", pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return newWriteError(err)
	}
	return nil
}

func (e *PDFExporter) amountCells(pdf *gofpdf.Fpdf, values []decimal.Decimal) {
	for _, v := range values {
		pdf.CellFormat(pdfAmountWidth, pdfLineHeight, e.FormatAmount(v), "1", 0, "R", false, 0, "")
	}
	pdf.Ln(-1)
}

func columnWidth(i int) float64 {
	if i == 0 {
		return pdfCustomerWidth
	}
	return pdfAmountWidth
}
