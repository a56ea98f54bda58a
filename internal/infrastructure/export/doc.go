// Package export renders customer risk reports into downloadable files.
//
// This package contains:
// - XLSXExporter writing the report table as an Excel workbook (excelize)
// - PDFExporter writing the same table as a landscape A4 document (gofpdf)
//
// Both exporters write the title, the "as of" line, the optional selected
// customers line, the column headers, one line per row and a TOTALS line when
// the report has at least one row.
//
// Example usage:
//
//	exp := export.NewXLSXExporter()
//	var buf bytes.Buffer
//	if err := exp.Export(&buf, report); err != nil {
//	    return err
//	}
//	name := risk.ExportFileName(report.ReferenceDate, exp.Format())
package export
