package risk

import (
	"fmt"
	"slices"
	"time"

	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceConvention selects how the raw receivable ledger sum is displayed
type BalanceConvention string

const (
	// BalanceAsPosted keeps debit-positive ledger balances as they are
	BalanceAsPosted BalanceConvention = "as_posted"
	// BalanceNegated flips the sign of the ledger sum
	BalanceNegated BalanceConvention = "negated"
)

// PendingFormula selects how a pending sales line is valued
type PendingFormula string

const (
	// PendingLineSubtotal uses the line subtotal (after discounts)
	PendingLineSubtotal PendingFormula = "line_subtotal"
	// PendingUnitPriceRemainder uses unit price times the quantity not yet invoiced
	PendingUnitPriceRemainder PendingFormula = "unit_price_remainder"
)

// InclusionPolicy decides which resolved customers produce a row
type InclusionPolicy string

const (
	// IncludeNonZero keeps customers with at least one non-zero amount
	IncludeNonZero InclusionPolicy = "non_zero"
	// IncludeAll keeps every resolved customer
	IncludeAll InclusionPolicy = "all"
)

// Policy holds the tunable rules of the aggregation
type Policy struct {
	ExcludedProductIDs  []uuid.UUID       `json:"excluded_product_ids,omitempty"`
	ChequeMethodCodes   []string          `json:"cheque_method_codes"`
	BalanceConvention   BalanceConvention `json:"balance_convention"`
	PendingFormula      PendingFormula    `json:"pending_formula"`
	Inclusion           InclusionPolicy   `json:"inclusion"`
	ChequeDueDateFilter bool              `json:"cheque_due_date_filter"`
	FailFast            bool              `json:"fail_fast"`
}

// DefaultPolicy returns the current report rules
func DefaultPolicy() Policy {
	return Policy{
		ChequeMethodCodes:   []string{MethodNewThirdPartyChecks, MethodInThirdPartyChecks},
		BalanceConvention:   BalanceAsPosted,
		PendingFormula:      PendingLineSubtotal,
		Inclusion:           IncludeNonZero,
		ChequeDueDateFilter: true,
	}
}

// LegacyPolicy returns the rules of the first report revision
func LegacyPolicy() Policy {
	return Policy{
		ChequeMethodCodes:   []string{MethodNewThirdPartyChecks, MethodInThirdPartyChecks},
		BalanceConvention:   BalanceNegated,
		PendingFormula:      PendingUnitPriceRemainder,
		Inclusion:           IncludeAll,
		ChequeDueDateFilter: false,
	}
}

// Validate checks the policy values
func (p Policy) Validate() error {
	switch p.BalanceConvention {
	case BalanceAsPosted, BalanceNegated:
	default:
		return shared.NewDomainError(CodeInvalidRequest, fmt.Sprintf("unknown balance convention %q", p.BalanceConvention))
	}
	switch p.PendingFormula {
	case PendingLineSubtotal, PendingUnitPriceRemainder:
	default:
		return shared.NewDomainError(CodeInvalidRequest, fmt.Sprintf("unknown pending formula %q", p.PendingFormula))
	}
	switch p.Inclusion {
	case IncludeNonZero, IncludeAll:
	default:
		return shared.NewDomainError(CodeInvalidRequest, fmt.Sprintf("unknown inclusion policy %q", p.Inclusion))
	}
	if len(p.ChequeMethodCodes) == 0 {
		return shared.NewDomainError(CodeInvalidRequest, "at least one check payment method code is required")
	}
	return nil
}

// PendingAmount values a single pending line. The line subtotal counts while
// something is left to deliver; the unit price formula values the quantity
// not yet invoiced. Lines with nothing open are worth zero.
func (p Policy) PendingAmount(l SalesOrderLine) decimal.Decimal {
	remaining := PendingLineQuery{Remainder: p.RemainderBasis()}.Remaining(l)
	if !remaining.IsPositive() {
		return decimal.Zero
	}
	if p.PendingFormula == PendingUnitPriceRemainder {
		return l.UnitPrice.Mul(remaining)
	}
	return l.LineSubtotal
}

// RemainderBasis returns the open quantity the pending formula is gated on
func (p Policy) RemainderBasis() RemainderBasis {
	if p.PendingFormula == PendingUnitPriceRemainder {
		return RemainderToInvoice
	}
	return RemainderToDeliver
}

// SignedBalance applies the balance convention to a raw ledger sum
func (p Policy) SignedBalance(raw decimal.Decimal) decimal.Decimal {
	if p.BalanceConvention == BalanceNegated {
		return raw.Neg()
	}
	return raw
}

// Includes reports whether a computed row is kept
func (p Policy) Includes(row ReportRow) bool {
	if p.Inclusion == IncludeAll {
		return true
	}
	return !row.IsZero()
}

// IsExcludedProduct reports whether a product never counts as pending
func (p Policy) IsExcludedProduct(productID uuid.UUID) bool {
	return slices.Contains(p.ExcludedProductIDs, productID)
}

// PendingQuery builds the pending-lines query for a customer
func (p Policy) PendingQuery(customer Customer, asOf time.Time) PendingLineQuery {
	return PendingLineQuery{
		CustomerID:         customer.ID,
		AsOf:               asOf,
		States:             ConfirmedOrderStates(),
		ExcludedProductIDs: slices.Clone(p.ExcludedProductIDs),
		Remainder:          p.RemainderBasis(),
	}
}

// LedgerQuery builds the receivable-entries query for a customer
func (p Policy) LedgerQuery(customer Customer, asOf time.Time) LedgerEntryQuery {
	return LedgerEntryQuery{
		CustomerID: customer.ID,
		AccountIDs: slices.Clone(customer.ReceivableAccountIDs),
		AsOf:       asOf,
	}
}

// ChequeQuery builds the in-hand checks query for a customer
func (p Policy) ChequeQuery(customer Customer, asOf time.Time) ChequeQuery {
	return ChequeQuery{
		CustomerID:       customer.ID,
		AsOf:             asOf,
		MethodCodes:      slices.Clone(p.ChequeMethodCodes),
		DueOnOrAfterAsOf: p.ChequeDueDateFilter,
	}
}
