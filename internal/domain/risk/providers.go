package risk

import (
	"context"

	"github.com/google/uuid"
)

// CustomerDirectory resolves the customers a report covers
type CustomerDirectory interface {
	// ListRanked returns every customer with a customer rank above zero
	ListRanked(ctx context.Context) ([]Customer, error)
	// FindByIDs returns the known customers among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)
}

// OrderProvider returns sales-order lines matching a pending-lines query
type OrderProvider interface {
	FindPendingLines(ctx context.Context, query PendingLineQuery) ([]SalesOrderLine, error)
}

// LedgerProvider returns ledger entries matching a receivable query
type LedgerProvider interface {
	FindLedgerEntries(ctx context.Context, query LedgerEntryQuery) ([]LedgerEntry, error)
}

// PaymentProvider returns payments matching a check query
type PaymentProvider interface {
	FindCheques(ctx context.Context, query ChequeQuery) ([]Payment, error)
}

// Sources bundles the read-only providers a report is computed from
type Sources struct {
	Customers CustomerDirectory
	Orders    OrderProvider
	Ledger    LedgerProvider
	Payments  PaymentProvider
}

// Validate checks that every provider is set
func (s Sources) Validate() error {
	if s.Customers == nil || s.Orders == nil || s.Ledger == nil || s.Payments == nil {
		return ErrInvalidRequest
	}
	return nil
}
