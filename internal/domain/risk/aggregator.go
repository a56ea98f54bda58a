package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Observer is notified around each customer evaluation.
// CustomerStarted may return a derived context that is passed to the providers.
type Observer interface {
	CustomerStarted(ctx context.Context, customer Customer) context.Context
	CustomerFinished(ctx context.Context, customer Customer, row ReportRow, included bool, err error)
}

type nopObserver struct{}

func (nopObserver) CustomerStarted(ctx context.Context, _ Customer) context.Context    { return ctx }
func (nopObserver) CustomerFinished(context.Context, Customer, ReportRow, bool, error) {}

// Aggregator computes per-customer risk rows from the order, ledger and payment providers.
// It never writes to the providers.
type Aggregator struct {
	sources  Sources
	policy   Policy
	observer Observer
	now      func() time.Time
}

// AggregatorOption is a functional option for configuring Aggregator
type AggregatorOption func(*Aggregator)

// WithPolicy sets the aggregation rules
func WithPolicy(p Policy) AggregatorOption {
	return func(a *Aggregator) {
		a.policy = p
	}
}

// WithObserver sets the evaluation observer
func WithObserver(o Observer) AggregatorOption {
	return func(a *Aggregator) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithClock sets the clock used to stamp reports
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates a new Aggregator
func NewAggregator(sources Sources, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sources:  sources,
		policy:   DefaultPolicy(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the rules the aggregator applies
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Sources returns the providers the aggregator reads from
func (a *Aggregator) Sources() Sources {
	return a.sources
}

// Compute builds a new report for the request
func (a *Aggregator) Compute(ctx context.Context, req ReportRequest) (*Report, error) {
	report := NewReport(req, a.policy)
	if err := a.Recompute(ctx, report, req.UniqueCustomerIDs()); err != nil {
		return nil, err
	}
	return report, nil
}

// Recompute evaluates the customers again and replaces the report's rows,
// policy and selection. The report is left untouched when the run fails.
func (a *Aggregator) Recompute(ctx context.Context, report *Report, customerIDs []uuid.UUID) error {
	if err := a.sources.Validate(); err != nil {
		return fmt.Errorf("risk aggregator: missing provider: %w", err)
	}
	if err := a.policy.Validate(); err != nil {
		return err
	}

	customers, failures, err := a.resolveCustomers(ctx, customerIDs)
	if err != nil {
		return err
	}
	var selected []Customer
	if len(customerIDs) > 0 {
		selected = customers
	}

	if !report.HasReferenceDate() {
		failures = append(failures, missingDateFailures(a.policy)...)
	}

	rows := make([]ReportRow, 0, len(customers))
	for _, customer := range customers {
		if err := ctx.Err(); err != nil {
			return err
		}

		cctx := a.observer.CustomerStarted(ctx, customer)
		row, err := a.evaluate(cctx, customer, report.ReferenceDate)
		if err != nil {
			a.observer.CustomerFinished(cctx, customer, row, false, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if a.policy.FailFast {
				return err
			}
			failures = append(failures, failureFor(customer, err))
			continue
		}

		included := a.policy.Includes(row)
		a.observer.CustomerFinished(cctx, customer, row, included, nil)
		if included {
			rows = append(rows, row)
		}
	}

	if err := report.ReplaceRows(rows, failures, a.now()); err != nil {
		return err
	}
	report.Policy = a.policy
	report.SelectedCustomers = selected
	report.Bind(a.sources)
	return nil
}

// Evaluate computes the row of a single customer at a reference date, whether or not it would be included
func (a *Aggregator) Evaluate(ctx context.Context, customer Customer, asOf time.Time) (ReportRow, error) {
	if err := a.sources.Validate(); err != nil {
		return ReportRow{}, err
	}
	return a.evaluate(ctx, customer, DateOf(asOf))
}

func (a *Aggregator) evaluate(ctx context.Context, customer Customer, asOf time.Time) (ReportRow, error) {
	pending, err := a.pendingAmount(ctx, customer, asOf)
	if err != nil {
		return ReportRow{}, err
	}
	balance, err := a.balance(ctx, customer, asOf)
	if err != nil {
		return ReportRow{}, err
	}
	cheques, err := a.cheques(ctx, customer, asOf)
	if err != nil {
		return ReportRow{}, err
	}
	return NewReportRow(customer, pending, balance, cheques), nil
}

func (a *Aggregator) pendingAmount(ctx context.Context, customer Customer, asOf time.Time) (decimal.Decimal, error) {
	if asOf.IsZero() {
		return decimal.Zero, nil
	}
	q := a.policy.PendingQuery(customer, asOf)
	lines, err := a.sources.Orders.FindPendingLines(ctx, q)
	if err != nil {
		return decimal.Zero, NewProviderError(SourceOrders, customer.ID, err)
	}
	total := decimal.Zero
	for _, l := range lines {
		if q.Matches(l) {
			total = total.Add(a.policy.PendingAmount(l))
		}
	}
	return total, nil
}

func (a *Aggregator) balance(ctx context.Context, customer Customer, asOf time.Time) (decimal.Decimal, error) {
	if asOf.IsZero() || !customer.HasReceivableAccount() {
		return decimal.Zero, nil
	}
	q := a.policy.LedgerQuery(customer, asOf)
	entries, err := a.sources.Ledger.FindLedgerEntries(ctx, q)
	if err != nil {
		return decimal.Zero, NewProviderError(SourceLedger, customer.ID, err)
	}
	raw := decimal.Zero
	for _, e := range entries {
		if q.Matches(e) {
			raw = raw.Add(e.Balance)
		}
	}
	return a.policy.SignedBalance(raw), nil
}

func (a *Aggregator) cheques(ctx context.Context, customer Customer, asOf time.Time) (decimal.Decimal, error) {
	q := a.policy.ChequeQuery(customer, asOf)
	if q.DateGated() && asOf.IsZero() {
		return decimal.Zero, nil
	}
	payments, err := a.sources.Payments.FindCheques(ctx, q)
	if err != nil {
		return decimal.Zero, NewProviderError(SourcePayments, customer.ID, err)
	}
	total := decimal.Zero
	for _, p := range payments {
		if q.Matches(p) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// resolveCustomers returns the customers in resolution order.
// Requested IDs unknown to the directory are reported as failures.
func (a *Aggregator) resolveCustomers(ctx context.Context, ids []uuid.UUID) ([]Customer, []Failure, error) {
	if len(ids) == 0 {
		ranked, err := a.sources.Customers.ListRanked(ctx)
		if err != nil {
			return nil, nil, NewProviderError(SourceCustomers, uuid.Nil, err)
		}
		out := make([]Customer, 0, len(ranked))
		for _, c := range ranked {
			if c.IsRanked() {
				out = append(out, c)
			}
		}
		return out, nil, nil
	}

	found, err := a.sources.Customers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, NewProviderError(SourceCustomers, uuid.Nil, err)
	}
	byID := make(map[uuid.UUID]Customer, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]Customer, 0, len(ids))
	var failures []Failure
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			failures = append(failures, Failure{
				CustomerID: id,
				Source:     SourceCustomers,
				Code:       shared.ErrNotFound.Code,
				Message:    "customer not found",
			})
			continue
		}
		out = append(out, c)
	}
	return out, failures, nil
}

func missingDateFailures(p Policy) []Failure {
	failures := []Failure{
		{Source: SourceOrders, Code: CodeInvalidRequest, Message: "reference date is missing, pending amounts reported as zero"},
		{Source: SourceLedger, Code: CodeInvalidRequest, Message: "reference date is missing, balances reported as zero"},
	}
	if p.ChequeDueDateFilter {
		failures = append(failures, Failure{Source: SourcePayments, Code: CodeInvalidRequest, Message: "reference date is missing, checks reported as zero"})
	}
	return failures
}

func failureFor(customer Customer, err error) Failure {
	f := Failure{
		CustomerID:   customer.ID,
		CustomerName: customer.DisplayName(),
		Code:         ErrorCode(err),
		Message:      err.Error(),
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		f.Source = pe.Source
	}
	if f.Code == "" {
		f.Code = CodeProviderFailure
	}
	return f
}
