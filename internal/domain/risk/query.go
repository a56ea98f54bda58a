package risk

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateOf truncates t to its calendar day, keeping the day as seen in t's own location.
// The result is expressed in UTC so that days from different zones compare by date only.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// onOrBefore compares calendar days
func onOrBefore(t, ref time.Time) bool {
	return !DateOf(t).After(DateOf(ref))
}

// onOrAfter compares calendar days
func onOrAfter(t, ref time.Time) bool {
	return !DateOf(t).Before(DateOf(ref))
}

// RemainderBasis names the quantity a line must still have open to count as pending
type RemainderBasis string

const (
	// RemainderToDeliver counts lines with quantity left to deliver
	RemainderToDeliver RemainderBasis = "to_deliver"
	// RemainderToInvoice counts lines with quantity left to invoice
	RemainderToInvoice RemainderBasis = "to_invoice"
)

// PendingLineQuery selects the sales-order lines still committed to a customer.
// An empty Remainder means RemainderToDeliver.
type PendingLineQuery struct {
	CustomerID         uuid.UUID
	AsOf               time.Time
	States             []OrderState
	ExcludedProductIDs []uuid.UUID
	Remainder          RemainderBasis
}

// Matches reports whether a line satisfies every filter of the query.
// A query without a reference date matches nothing.
func (q PendingLineQuery) Matches(l SalesOrderLine) bool {
	if q.AsOf.IsZero() {
		return false
	}
	if l.CustomerID != q.CustomerID {
		return false
	}
	if !onOrBefore(l.OrderDate, q.AsOf) {
		return false
	}
	if !slices.Contains(q.OrderStates(), l.OrderState) {
		return false
	}
	if slices.Contains(q.ExcludedProductIDs, l.ProductID) {
		return false
	}
	return q.Remaining(l).IsPositive()
}

// Remaining returns the open quantity of a line under the query's remainder basis
func (q PendingLineQuery) Remaining(l SalesOrderLine) decimal.Decimal {
	if q.Remainder == RemainderToInvoice {
		return l.QuantityToInvoice()
	}
	return l.QuantityToDeliver
}

// OrderStates returns the order states the query accepts, confirmed states by default
func (q PendingLineQuery) OrderStates() []OrderState {
	if len(q.States) == 0 {
		return ConfirmedOrderStates()
	}
	return q.States
}

// LedgerEntryQuery selects posted receivable entries up to the reference date
type LedgerEntryQuery struct {
	CustomerID uuid.UUID
	AccountIDs []uuid.UUID
	AsOf       time.Time
}

// Matches reports whether an entry contributes to the customer's balance
func (q LedgerEntryQuery) Matches(e LedgerEntry) bool {
	if q.AsOf.IsZero() || len(q.AccountIDs) == 0 {
		return false
	}
	if e.CustomerID != q.CustomerID {
		return false
	}
	if !slices.Contains(q.AccountIDs, e.AccountID) {
		return false
	}
	if e.ParentState != MoveStatePosted {
		return false
	}
	return onOrBefore(e.Date, q.AsOf)
}

// ChequeQuery selects posted third-party checks held for a customer.
// When DueOnOrAfterAsOf is set, only checks not yet due at the reference date match
// and a missing reference date matches nothing.
type ChequeQuery struct {
	CustomerID       uuid.UUID
	AsOf             time.Time
	MethodCodes      []string
	DueOnOrAfterAsOf bool
}

// Matches reports whether a payment is an in-hand check for the customer
func (q ChequeQuery) Matches(p Payment) bool {
	if p.CustomerID != q.CustomerID {
		return false
	}
	if p.State != PaymentStatePosted {
		return false
	}
	if !slices.Contains(q.MethodCodes, p.MethodCode) {
		return false
	}
	if !q.DueOnOrAfterAsOf {
		return true
	}
	if q.AsOf.IsZero() || p.DueDate.IsZero() {
		return false
	}
	return onOrAfter(p.DueDate, q.AsOf)
}

// DateGated reports whether the query depends on the reference date
func (q ChequeQuery) DateGated() bool {
	return q.DueOnOrAfterAsOf
}
