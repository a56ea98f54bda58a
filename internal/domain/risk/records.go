package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState represents the state of a sales order
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateSent      OrderState = "sent"
	OrderStateSale      OrderState = "sale" // Confirmed
	OrderStateDone      OrderState = "done" // Fulfilled and locked
	OrderStateCancelled OrderState = "cancel"
)

// IsConfirmed reports whether the order is a firm commitment (confirmed or fulfilled)
func (s OrderState) IsConfirmed() bool {
	return s == OrderStateSale || s == OrderStateDone
}

// ConfirmedOrderStates lists the states that count as sales commitments
func ConfirmedOrderStates() []OrderState {
	return []OrderState{OrderStateSale, OrderStateDone}
}

// SalesOrderLine is a read-only view of one line of a sales order
type SalesOrderLine struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	OrderDate         time.Time       `json:"order_date"`
	OrderState        OrderState      `json:"order_state"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	QuantityOrdered   decimal.Decimal `json:"quantity_ordered"`
	QuantityToDeliver decimal.Decimal `json:"quantity_to_deliver"` // Ordered minus delivered
	QuantityInvoiced  decimal.Decimal `json:"quantity_invoiced"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineSubtotal      decimal.Decimal `json:"line_subtotal"` // Quantity-inclusive, after discounts
}

// QuantityToInvoice returns the ordered quantity not yet invoiced
func (l SalesOrderLine) QuantityToInvoice() decimal.Decimal {
	return l.QuantityOrdered.Sub(l.QuantityInvoiced)
}

// MoveState represents the state of the journal entry a ledger line belongs to
type MoveState string

const (
	MoveStateDraft     MoveState = "draft"
	MoveStatePosted    MoveState = "posted"
	MoveStateCancelled MoveState = "cancel"
)

// LedgerEntry is a read-only view of a journal item on a receivable account.
// Balance is debit minus credit in the reporting currency.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	MoveName    string          `json:"move_name"`
	Date        time.Time       `json:"date"`
	ParentState MoveState       `json:"parent_state"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// PaymentState represents the state of a customer payment
type PaymentState string

const (
	PaymentStateDraft     PaymentState = "draft"
	PaymentStatePosted    PaymentState = "posted"
	PaymentStateCancelled PaymentState = "cancel"
)

// Third-party check payment method codes
const (
	MethodNewThirdPartyChecks = "new_third_party_checks"
	MethodInThirdPartyChecks  = "in_third_party_checks"
)

// Payment is a read-only view of a customer payment.
// DueDate is the check's deposit/payment date; zero when unknown.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PaymentNumber string          `json:"payment_number"`
	State         PaymentState    `json:"state"`
	MethodCode    string          `json:"method_code"`
	CheckNumber   string          `json:"check_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
}
