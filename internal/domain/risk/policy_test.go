package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	require.NoError(t, p.Validate())
	assert.Equal(t, BalanceAsPosted, p.BalanceConvention)
	assert.Equal(t, PendingLineSubtotal, p.PendingFormula)
	assert.Equal(t, IncludeNonZero, p.Inclusion)
	assert.True(t, p.ChequeDueDateFilter)
	assert.ElementsMatch(t, []string{MethodNewThirdPartyChecks, MethodInThirdPartyChecks}, p.ChequeMethodCodes)
}

func TestLegacyPolicy(t *testing.T) {
	p := LegacyPolicy()

	require.NoError(t, p.Validate())
	assert.Equal(t, BalanceNegated, p.BalanceConvention)
	assert.Equal(t, PendingUnitPriceRemainder, p.PendingFormula)
	assert.Equal(t, IncludeAll, p.Inclusion)
	assert.False(t, p.ChequeDueDateFilter)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"unknown balance convention", func(p *Policy) { p.BalanceConvention = "flipped" }},
		{"unknown pending formula", func(p *Policy) { p.PendingFormula = "gross" }},
		{"unknown inclusion", func(p *Policy) { p.Inclusion = "some" }},
		{"no check methods", func(p *Policy) { p.ChequeMethodCodes = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestPolicy_PendingAmount(t *testing.T) {
	c := newTestCustomer("ACME")

	t.Run("line subtotal", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "950")
		assert.True(t, dec("950").Equal(DefaultPolicy().PendingAmount(line)))
	})

	t.Run("unit price times quantity not yet invoiced", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "1000")
		line.QuantityInvoiced = dec("4")
		assert.True(t, dec("600").Equal(LegacyPolicy().PendingAmount(line)))
	})

	t.Run("over invoiced line is worth zero", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "1000")
		line.QuantityInvoiced = dec("12")
		assert.True(t, LegacyPolicy().PendingAmount(line).IsZero())
	})

	t.Run("delivered line is worth zero by subtotal", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "1000")
		line.QuantityToDeliver = dec("0")
		assert.True(t, DefaultPolicy().PendingAmount(line).IsZero())
	})

	t.Run("delivered but uninvoiced line counts by unit price", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "500")
		line.QuantityToDeliver = dec("0")
		assert.True(t, dec("500").Equal(LegacyPolicy().PendingAmount(line)))
	})

	t.Run("undelivered but fully invoiced line is worth zero by unit price", func(t *testing.T) {
		line := newPendingLine(c, day(2026, 1, 1), "500")
		line.QuantityInvoiced = dec("10")
		assert.True(t, LegacyPolicy().PendingAmount(line).IsZero())
		assert.True(t, dec("500").Equal(DefaultPolicy().PendingAmount(line)))
	})
}

func TestPolicy_SignedBalance(t *testing.T) {
	assert.True(t, dec("1200").Equal(DefaultPolicy().SignedBalance(dec("1200"))))
	assert.True(t, dec("-1200").Equal(LegacyPolicy().SignedBalance(dec("1200"))))
}

func TestPolicy_Includes(t *testing.T) {
	c := newTestCustomer("ACME")
	zero := NewReportRow(c, dec("0"), dec("0"), dec("0"))
	nonZero := NewReportRow(c, dec("0"), dec("0"), dec("1"))

	assert.False(t, DefaultPolicy().Includes(zero))
	assert.True(t, DefaultPolicy().Includes(nonZero))
	assert.True(t, LegacyPolicy().Includes(zero))
}

func TestPolicy_Queries(t *testing.T) {
	c := newTestCustomer("ACME")
	ref := day(2026, 1, 31)
	p := DefaultPolicy()

	pq := p.PendingQuery(c, ref)
	assert.Equal(t, c.ID, pq.CustomerID)
	assert.Equal(t, ConfirmedOrderStates(), pq.States)
	assert.Equal(t, RemainderToDeliver, pq.Remainder)
	assert.Equal(t, RemainderToInvoice, LegacyPolicy().PendingQuery(c, ref).Remainder)

	lq := p.LedgerQuery(c, ref)
	assert.Equal(t, c.ReceivableAccountIDs, lq.AccountIDs)

	cq := p.ChequeQuery(c, ref)
	assert.True(t, cq.DueOnOrAfterAsOf)
	assert.Equal(t, p.ChequeMethodCodes, cq.MethodCodes)
}
