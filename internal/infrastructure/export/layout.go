package export

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/shopspring/decimal"
)

// Column labels of the report table, in output order
var Headers = []string{
	"Customer",
	"Pending($)",
	"Customer Balance",
	"Subtotal",
	"Checks-on-hand",
	"Balance+Checks",
}

// TotalsLabel is written in the customer column of the totals line
const TotalsLabel = "TOTALS"

// MaxSelectedLength is the length past which the selected customers line is truncated
const MaxSelectedLength = 80

// DateLayout is the day/month/year layout used in exported files
const DateLayout = "02/01/2006"

// Error codes for export failures
const (
	ErrCodeBuildFailed = "BUILD_FAILED"
	ErrCodeWriteFailed = "WRITE_FAILED"
)

// ExportError represents an error while building or writing an export
type ExportError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func newBuildError(message string, cause error) error {
	return risk.NewExportError(&ExportError{Code: ErrCodeBuildFailed, Message: message, Cause: cause})
}

func newWriteError(cause error) error {
	return risk.NewExportError(&ExportError{Code: ErrCodeWriteFailed, Message: "failed to write export", Cause: cause})
}

// AsOfLine returns the subtitle carrying the reference date
func AsOfLine(referenceDate time.Time) string {
	if referenceDate.IsZero() {
		return "As of: no date"
	}
	return "As of " + referenceDate.Format(DateLayout)
}

// SelectedCustomersLine returns the line listing the explicitly selected
// customers, or empty when the report covers every ranked customer
func SelectedCustomersLine(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "Selected customers: " + Truncate(strings.Join(names, ", "), MaxSelectedLength)
}

// Truncate shortens s to max characters, ending with "..." when cut
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// rowValues returns the five numeric columns of a row
func rowValues(r risk.ReportRow) []decimal.Decimal {
	return []decimal.Decimal{r.PendingAmount, r.Balance, r.Subtotal, r.Cheques, r.SaldoCheques}
}

func totalValues(t risk.Totals) []decimal.Decimal {
	return []decimal.Decimal{t.PendingAmount, t.Balance, t.Subtotal, t.Cheques, t.SaldoCheques}
}

func checkReport(report *risk.Report) error {
	if report == nil {
		return newBuildError("invalid report", errors.New("report is nil"))
	}
	return nil
}
