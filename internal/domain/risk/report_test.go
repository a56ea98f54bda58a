package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRequest_UniqueCustomerIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := ReportRequest{CustomerIDs: []uuid.UUID{a, b, a, b, a}}

	assert.Equal(t, []uuid.UUID{a, b}, req.UniqueCustomerIDs())
	assert.Empty(t, ReportRequest{}.UniqueCustomerIDs())
}

func TestNewReportRow_DerivesTotals(t *testing.T) {
	c := newTestCustomer("ACME")
	row := NewReportRow(c, dec("1000.10"), dec("-250.05"), dec("300.20"))

	assert.True(t, dec("750.05").Equal(row.Subtotal))
	assert.True(t, dec("50.15").Equal(row.SaldoCheques))
	assert.True(t, row.Consistent())
	assert.False(t, row.IsZero())
}

func TestNewReport(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)

	t.Run("defaults the name and truncates the date", func(t *testing.T) {
		r := NewReport(ReportRequest{ReferenceDate: time.Date(2026, 1, 31, 22, 0, 0, 0, loc)}, DefaultPolicy())
		assert.Equal(t, DefaultReportName, r.Name)
		assert.Equal(t, day(2026, 1, 31), r.ReferenceDate)
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.True(t, r.HasReferenceDate())
	})

	t.Run("keeps a given name", func(t *testing.T) {
		r := NewReport(ReportRequest{Name: "  Q1 exposure "}, DefaultPolicy())
		assert.Equal(t, "Q1 exposure", r.Name)
		assert.False(t, r.HasReferenceDate())
	})
}

func TestReport_ReplaceRows(t *testing.T) {
	a, b := newTestCustomer("A"), newTestCustomer("B")
	r := NewReport(ReportRequest{ReferenceDate: day(2026, 1, 31)}, DefaultPolicy())
	now := time.Now()

	require.NoError(t, r.ReplaceRows([]ReportRow{NewReportRow(a, dec("1"), dec("0"), dec("0"))}, nil, now))
	require.Len(t, r.Rows, 1)

	t.Run("replaces the previous set", func(t *testing.T) {
		require.NoError(t, r.ReplaceRows([]ReportRow{NewReportRow(b, dec("2"), dec("0"), dec("0"))}, nil, now))
		require.Len(t, r.Rows, 1)
		assert.Equal(t, b.ID, r.Rows[0].Customer.ID)
	})

	t.Run("rejects duplicate customers and keeps previous rows", func(t *testing.T) {
		err := r.ReplaceRows([]ReportRow{
			NewReportRow(a, dec("1"), dec("0"), dec("0")),
			NewReportRow(a, dec("3"), dec("0"), dec("0")),
		}, nil, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRequest))
		require.Len(t, r.Rows, 1)
		assert.Equal(t, b.ID, r.Rows[0].Customer.ID)
	})

	t.Run("rejects inconsistent rows", func(t *testing.T) {
		bad := NewReportRow(a, dec("1"), dec("1"), dec("1"))
		bad.Subtotal = dec("5")
		require.Error(t, r.ReplaceRows([]ReportRow{bad}, nil, now))
	})
}

func TestReport_TotalsAndRow(t *testing.T) {
	a, b := newTestCustomer("A"), newTestCustomer("B")
	r := NewReport(ReportRequest{ReferenceDate: day(2026, 1, 31)}, DefaultPolicy())
	require.NoError(t, r.ReplaceRows([]ReportRow{
		NewReportRow(a, dec("100"), dec("200"), dec("50")),
		NewReportRow(b, dec("0"), dec("-20.5"), dec("10")),
	}, nil, time.Now()))

	totals := r.Totals()
	assert.True(t, dec("100").Equal(totals.PendingAmount))
	assert.True(t, dec("179.5").Equal(totals.Balance))
	assert.True(t, dec("279.5").Equal(totals.Subtotal))
	assert.True(t, dec("60").Equal(totals.Cheques))
	assert.True(t, dec("239.5").Equal(totals.SaldoCheques))

	row, err := r.Row(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", row.Customer.Name)

	_, err = r.Row(uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSumRows_Empty(t *testing.T) {
	totals := SumRows(nil)
	assert.True(t, totals.PendingAmount.IsZero())
	assert.True(t, totals.SaldoCheques.IsZero())
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "Risk_Report_Customers_20260131.xlsx", ExportFileName(day(2026, 1, 31), "xlsx"))
	assert.Equal(t, "Risk_Report_Customers_no_date.pdf", ExportFileName(time.Time{}, "pdf"))
}
