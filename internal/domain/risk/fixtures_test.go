package risk

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memorySource is a test double implementing every provider over plain slices.
// It returns all records of the customer and leaves filtering to the caller,
// so the aggregator's own predicates are exercised.
type memorySource struct {
	customers []Customer
	lines     []SalesOrderLine
	entries   []LedgerEntry
	payments  []Payment

	failOrders   map[uuid.UUID]error
	failLedger   map[uuid.UUID]error
	failPayments map[uuid.UUID]error
	listErr      error

	calls int
}

func newMemorySource() *memorySource {
	return &memorySource{
		failOrders:   map[uuid.UUID]error{},
		failLedger:   map[uuid.UUID]error{},
		failPayments: map[uuid.UUID]error{},
	}
}

func (m *memorySource) sources() Sources {
	return Sources{Customers: m, Orders: m, Ledger: m, Payments: m}
}

func (m *memorySource) ListRanked(ctx context.Context) ([]Customer, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Customer
	for _, c := range m.customers {
		if c.IsRanked() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memorySource) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Customer
	for _, c := range m.customers {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memorySource) FindPendingLines(ctx context.Context, q PendingLineQuery) ([]SalesOrderLine, error) {
	m.calls++
	if err := m.failOrders[q.CustomerID]; err != nil {
		return nil, err
	}
	var out []SalesOrderLine
	for _, l := range m.lines {
		if l.CustomerID == q.CustomerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memorySource) FindLedgerEntries(ctx context.Context, q LedgerEntryQuery) ([]LedgerEntry, error) {
	m.calls++
	if err := m.failLedger[q.CustomerID]; err != nil {
		return nil, err
	}
	var out []LedgerEntry
	for _, e := range m.entries {
		if e.CustomerID == q.CustomerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memorySource) FindCheques(ctx context.Context, q ChequeQuery) ([]Payment, error) {
	m.calls++
	if err := m.failPayments[q.CustomerID]; err != nil {
		return nil, err
	}
	var out []Payment
	for _, p := range m.payments {
		if p.CustomerID == q.CustomerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Test helpers

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestCustomer(name string) Customer {
	return Customer{
		ID:                   uuid.New(),
		Code:                 name,
		Name:                 name,
		CustomerRank:         1,
		ReceivableAccountIDs: []uuid.UUID{uuid.New()},
	}
}

func newPendingLine(c Customer, orderDate time.Time, subtotal string) SalesOrderLine {
	return SalesOrderLine{
		ID:                uuid.New(),
		OrderID:           uuid.New(),
		OrderNumber:       "SO-0001",
		CustomerID:        c.ID,
		OrderDate:         orderDate,
		OrderState:        OrderStateSale,
		ProductID:         uuid.New(),
		ProductName:       "Widget",
		QuantityOrdered:   dec("10"),
		QuantityToDeliver: dec("10"),
		QuantityInvoiced:  dec("0"),
		UnitPrice:         dec(subtotal).Div(dec("10")),
		LineSubtotal:      dec(subtotal),
	}
}

func newPostedEntry(c Customer, date time.Time, balance string) LedgerEntry {
	b := dec(balance)
	e := LedgerEntry{
		ID:          uuid.New(),
		CustomerID:  c.ID,
		AccountID:   c.ReceivableAccountIDs[0],
		MoveName:    "INV/0001",
		Date:        date,
		ParentState: MoveStatePosted,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		Balance:     b,
	}
	if b.IsPositive() {
		e.Debit = b
	} else {
		e.Credit = b.Neg()
	}
	return e
}

func newCheque(c Customer, due time.Time, amount string) Payment {
	return Payment{
		ID:            uuid.New(),
		CustomerID:    c.ID,
		PaymentNumber: "PCHK-0001",
		State:         PaymentStatePosted,
		MethodCode:    MethodInThirdPartyChecks,
		Amount:        dec(amount),
		DueDate:       due,
	}
}
