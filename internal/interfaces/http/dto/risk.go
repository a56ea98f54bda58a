package dto

import (
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the date format of report requests and responses
const DateLayout = "2006-01-02"

// GenerateReportRequest is the body of a report run
type GenerateReportRequest struct {
	Name          string   `json:"name" binding:"omitempty,max=200"`
	ReferenceDate string   `json:"reference_date" binding:"omitempty,datetime=2006-01-02"`
	CustomerIDs   []string `json:"customer_ids" binding:"omitempty,max=1000,dive,uuid"`
}

// ParseReferenceDate returns the reference date, or nil when it was not given
func (r GenerateReportRequest) ParseReferenceDate() (*time.Time, error) {
	if r.ReferenceDate == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, r.ReferenceDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseCustomerIDs returns the requested customer IDs
func (r GenerateReportRequest) ParseCustomerIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.CustomerIDs))
	for _, raw := range r.CustomerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ExportQuery selects the file format of an export
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx pdf"`
}

// FormatOrDefault returns the requested format, xlsx when empty
func (q ExportQuery) FormatOrDefault() string {
	if q.Format == "" {
		return "xlsx"
	}
	return q.Format
}

// CustomerResponse is a customer in API responses
type CustomerResponse struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code,omitempty"`
	Name string    `json:"name"`
}

// ReportRowResponse is one customer row
type ReportRowResponse struct {
	Customer      CustomerResponse `json:"customer"`
	PendingAmount decimal.Decimal  `json:"pending_amount"`
	Balance       decimal.Decimal  `json:"balance"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Cheques       decimal.Decimal  `json:"cheques"`
	SaldoCheques  decimal.Decimal  `json:"saldo_cheques"`
}

// TotalsResponse sums the numeric columns
type TotalsResponse struct {
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Cheques       decimal.Decimal `json:"cheques"`
	SaldoCheques  decimal.Decimal `json:"saldo_cheques"`
}

// FailureResponse is a customer that could not be fully computed
type FailureResponse struct {
	CustomerID   *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName string     `json:"customer_name,omitempty"`
	Source       string     `json:"source,omitempty"`
	Code         string     `json:"code"`
	Message      string     `json:"message"`
}

// ReportResponse is a computed report
type ReportResponse struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	ReferenceDate     *string             `json:"reference_date"`
	SelectedCustomers []CustomerResponse  `json:"selected_customers"`
	Rows              []ReportRowResponse `json:"rows"`
	Totals            TotalsResponse      `json:"totals"`
	Failures          []FailureResponse   `json:"failures"`
	GeneratedAt       time.Time           `json:"generated_at"`
}

// NewReportResponse converts a report
func NewReportResponse(r *risk.Report) ReportResponse {
	resp := ReportResponse{
		ID:                r.ID,
		Name:              r.Name,
		ReferenceDate:     formatDate(r.ReferenceDate),
		SelectedCustomers: make([]CustomerResponse, 0, len(r.SelectedCustomers)),
		Rows:              make([]ReportRowResponse, 0, len(r.Rows)),
		Failures:          make([]FailureResponse, 0, len(r.Failures)),
		GeneratedAt:       r.GeneratedAt,
	}
	for _, c := range r.SelectedCustomers {
		resp.SelectedCustomers = append(resp.SelectedCustomers, newCustomerResponse(c))
	}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, ReportRowResponse{
			Customer:      newCustomerResponse(row.Customer),
			PendingAmount: row.PendingAmount,
			Balance:       row.Balance,
			Subtotal:      row.Subtotal,
			Cheques:       row.Cheques,
			SaldoCheques:  row.SaldoCheques,
		})
	}
	t := r.Totals()
	resp.Totals = TotalsResponse{
		PendingAmount: t.PendingAmount,
		Balance:       t.Balance,
		Subtotal:      t.Subtotal,
		Cheques:       t.Cheques,
		SaldoCheques:  t.SaldoCheques,
	}
	for _, f := range r.Failures {
		fr := FailureResponse{
			CustomerName: f.CustomerName,
			Source:       f.Source,
			Code:         f.Code,
			Message:      f.Message,
		}
		if f.CustomerID != uuid.Nil {
			id := f.CustomerID
			fr.CustomerID = &id
		}
		resp.Failures = append(resp.Failures, fr)
	}
	return resp
}

func newCustomerResponse(c risk.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, Code: c.Code, Name: c.DisplayName()}
}

// PendingLineResponse is a sales line behind a pending amount
type PendingLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	OrderDate         *string         `json:"order_date"`
	OrderState        string          `json:"order_state"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	QuantityOrdered   decimal.Decimal `json:"quantity_ordered"`
	QuantityToDeliver decimal.Decimal `json:"quantity_to_deliver"`
	QuantityInvoiced  decimal.Decimal `json:"quantity_invoiced"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineSubtotal      decimal.Decimal `json:"line_subtotal"`
}

// NewPendingLineResponses converts sales lines
func NewPendingLineResponses(lines []risk.SalesOrderLine) []PendingLineResponse {
	out := make([]PendingLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, PendingLineResponse{
			ID:                l.ID,
			OrderNumber:       l.OrderNumber,
			OrderDate:         formatDate(l.OrderDate),
			OrderState:        string(l.OrderState),
			ProductID:         l.ProductID,
			ProductName:       l.ProductName,
			QuantityOrdered:   l.QuantityOrdered,
			QuantityToDeliver: l.QuantityToDeliver,
			QuantityInvoiced:  l.QuantityInvoiced,
			UnitPrice:         l.UnitPrice,
			LineSubtotal:      l.LineSubtotal,
		})
	}
	return out
}

// LedgerEntryResponse is a receivable entry behind a balance
type LedgerEntryResponse struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	MoveName  string          `json:"move_name"`
	Date      *string         `json:"date"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewLedgerEntryResponses converts ledger entries
func NewLedgerEntryResponses(entries []risk.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:        e.ID,
			AccountID: e.AccountID,
			MoveName:  e.MoveName,
			Date:      formatDate(e.Date),
			Debit:     e.Debit,
			Credit:    e.Credit,
			Balance:   e.Balance,
		})
	}
	return out
}

// ChequeResponse is an in-hand check behind a checks amount
type ChequeResponse struct {
	ID            uuid.UUID       `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	MethodCode    string          `json:"method_code"`
	CheckNumber   string          `json:"check_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *string         `json:"due_date"`
}

// NewChequeResponses converts check payments
func NewChequeResponses(payments []risk.Payment) []ChequeResponse {
	out := make([]ChequeResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ChequeResponse{
			ID:            p.ID,
			PaymentNumber: p.PaymentNumber,
			MethodCode:    p.MethodCode,
			CheckNumber:   p.CheckNumber,
			Amount:        p.Amount,
			DueDate:       formatDate(p.DueDate),
		})
	}
	return out
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
