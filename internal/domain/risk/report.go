package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultReportName is used when a request does not name the report
const DefaultReportName = "Customer Risk Report"

// ReportRequest describes one report run. A zero ReferenceDate means the date is missing.
// An empty CustomerIDs list selects every ranked customer.
type ReportRequest struct {
	Name          string
	ReferenceDate time.Time
	CustomerIDs   []uuid.UUID
}

// HasReferenceDate reports whether the request carries a reference date
func (r ReportRequest) HasReferenceDate() bool {
	return !r.ReferenceDate.IsZero()
}

// UniqueCustomerIDs returns the requested IDs without duplicates, first occurrence wins
func (r ReportRequest) UniqueCustomerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.CustomerIDs))
	ids := make([]uuid.UUID, 0, len(r.CustomerIDs))
	for _, id := range r.CustomerIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ReportRow is the computed risk summary of one customer
type ReportRow struct {
	Customer      Customer        `json:"customer"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Cheques       decimal.Decimal `json:"cheques"`
	SaldoCheques  decimal.Decimal `json:"saldo_cheques"`

	drill *drillDown
}

// NewReportRow builds a row and derives subtotal and balance-plus-checks
func NewReportRow(customer Customer, pending, balance, cheques decimal.Decimal) ReportRow {
	return ReportRow{
		Customer:      customer,
		PendingAmount: pending,
		Balance:       balance,
		Subtotal:      pending.Add(balance),
		Cheques:       cheques,
		SaldoCheques:  balance.Add(cheques),
	}
}

// IsZero reports whether pending, balance and checks are all zero
func (r ReportRow) IsZero() bool {
	return r.PendingAmount.IsZero() && r.Balance.IsZero() && r.Cheques.IsZero()
}

// Consistent reports whether the derived fields match their components
func (r ReportRow) Consistent() bool {
	return r.Subtotal.Equal(r.PendingAmount.Add(r.Balance)) &&
		r.SaldoCheques.Equal(r.Balance.Add(r.Cheques))
}

// Totals sums the numeric columns of a set of rows
type Totals struct {
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Cheques       decimal.Decimal `json:"cheques"`
	SaldoCheques  decimal.Decimal `json:"saldo_cheques"`
}

// SumRows returns the column totals of rows
func SumRows(rows []ReportRow) Totals {
	t := Totals{
		PendingAmount: decimal.Zero,
		Balance:       decimal.Zero,
		Subtotal:      decimal.Zero,
		Cheques:       decimal.Zero,
		SaldoCheques:  decimal.Zero,
	}
	for _, r := range rows {
		t.PendingAmount = t.PendingAmount.Add(r.PendingAmount)
		t.Balance = t.Balance.Add(r.Balance)
		t.Subtotal = t.Subtotal.Add(r.Subtotal)
		t.Cheques = t.Cheques.Add(r.Cheques)
		t.SaldoCheques = t.SaldoCheques.Add(r.SaldoCheques)
	}
	return t
}

// Failure records a customer whose amounts could not be fully computed
type Failure struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Source       string    `json:"source,omitempty"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// Report is a transient credit-risk report and its latest computed rows
type Report struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	ReferenceDate     time.Time   `json:"reference_date"`
	SelectedCustomers []Customer  `json:"selected_customers,omitempty"`
	Policy            Policy      `json:"policy"`
	Rows              []ReportRow `json:"rows"`
	Failures          []Failure   `json:"failures,omitempty"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// NewReport creates an empty report for a request
func NewReport(req ReportRequest, policy Policy) *Report {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultReportName
	}
	ref := time.Time{}
	if req.HasReferenceDate() {
		ref = DateOf(req.ReferenceDate)
	}
	return &Report{
		ID:            uuid.New(),
		Name:          name,
		ReferenceDate: ref,
		Policy:        policy,
		Rows:          []ReportRow{},
	}
}

// HasReferenceDate reports whether the report carries a reference date
func (r *Report) HasReferenceDate() bool {
	return !r.ReferenceDate.IsZero()
}

// ReplaceRows swaps the whole row set. Nothing changes when the new set is invalid.
func (r *Report) ReplaceRows(rows []ReportRow, failures []Failure, generatedAt time.Time) error {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.Customer.ID]; ok {
			return shared.NewDomainError(CodeInvalidRequest, fmt.Sprintf("duplicate row for customer %s", row.Customer.ID))
		}
		if !row.Consistent() {
			return shared.NewDomainError(CodeInvalidRequest, fmt.Sprintf("inconsistent totals for customer %s", row.Customer.ID))
		}
		seen[row.Customer.ID] = struct{}{}
	}
	next := make([]ReportRow, len(rows))
	copy(next, rows)
	r.Rows = next
	r.Failures = append([]Failure(nil), failures...)
	r.GeneratedAt = generatedAt
	return nil
}

// Totals sums the current rows
func (r *Report) Totals() Totals {
	return SumRows(r.Rows)
}

// Row returns the row of a customer
func (r *Report) Row(customerID uuid.UUID) (*ReportRow, error) {
	for i := range r.Rows {
		if r.Rows[i].Customer.ID == customerID {
			return &r.Rows[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// SelectedCustomerNames returns the display names of the explicitly selected customers
func (r *Report) SelectedCustomerNames() []string {
	names := make([]string, 0, len(r.SelectedCustomers))
	for _, c := range r.SelectedCustomers {
		names = append(names, c.DisplayName())
	}
	return names
}

// HasFailures reports whether any customer could not be fully computed
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// ExportFileName returns the conventional export file name, e.g. Risk_Report_Customers_20260131.xlsx
func ExportFileName(referenceDate time.Time, ext string) string {
	stamp := "no_date"
	if !referenceDate.IsZero() {
		stamp = referenceDate.Format("20060102")
	}
	return fmt.Sprintf("Risk_Report_Customers_%s.%s", stamp, ext)
}
