package risk

import (
	"context"
	"time"
)

// drillDown binds a row to the providers and rules of its report
type drillDown struct {
	sources Sources
	policy  Policy
	asOf    time.Time
}

// Bind attaches the providers used by the drill-down accessors of every row.
// The report's own policy and reference date drive the queries.
func (r *Report) Bind(sources Sources) {
	for i := range r.Rows {
		r.Rows[i].drill = &drillDown{sources: sources, policy: r.Policy, asOf: r.ReferenceDate}
	}
}

// IsBound reports whether drill-down accessors can reach the providers
func (r ReportRow) IsBound() bool {
	return r.drill != nil
}

// PendingLines returns the sales lines that make up the pending amount.
// The query is re-run against current data with the report's reference date.
func (r ReportRow) PendingLines(ctx context.Context) ([]SalesOrderLine, error) {
	if r.drill == nil || r.drill.asOf.IsZero() {
		return []SalesOrderLine{}, nil
	}
	q := r.drill.policy.PendingQuery(r.Customer, r.drill.asOf)
	lines, err := r.drill.sources.Orders.FindPendingLines(ctx, q)
	if err != nil {
		return nil, NewProviderError(SourceOrders, r.Customer.ID, err)
	}
	return filter(lines, q.Matches), nil
}

// LedgerEntries returns the receivable entries that make up the balance
func (r ReportRow) LedgerEntries(ctx context.Context) ([]LedgerEntry, error) {
	if r.drill == nil || r.drill.asOf.IsZero() {
		return []LedgerEntry{}, nil
	}
	q := r.drill.policy.LedgerQuery(r.Customer, r.drill.asOf)
	if len(q.AccountIDs) == 0 {
		return []LedgerEntry{}, nil
	}
	entries, err := r.drill.sources.Ledger.FindLedgerEntries(ctx, q)
	if err != nil {
		return nil, NewProviderError(SourceLedger, r.Customer.ID, err)
	}
	return filter(entries, q.Matches), nil
}

// ChequePayments returns the in-hand checks that make up the checks amount
func (r ReportRow) ChequePayments(ctx context.Context) ([]Payment, error) {
	if r.drill == nil || r.drill.asOf.IsZero() {
		return []Payment{}, nil
	}
	q := r.drill.policy.ChequeQuery(r.Customer, r.drill.asOf)
	payments, err := r.drill.sources.Payments.FindCheques(ctx, q)
	if err != nil {
		return nil, NewProviderError(SourcePayments, r.Customer.ID, err)
	}
	return filter(payments, q.Matches), nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
