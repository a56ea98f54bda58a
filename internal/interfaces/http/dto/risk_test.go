package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReportRequest_Parse(t *testing.T) {
	id := uuid.New()
	req := GenerateReportRequest{ReferenceDate: "2026-01-31", CustomerIDs: []string{id.String()}}

	date, err := req.ParseReferenceDate()
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *date)

	ids, err := req.ParseCustomerIDs()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)

	date, err = GenerateReportRequest{}.ParseReferenceDate()
	require.NoError(t, err)
	assert.Nil(t, date)

	_, err = GenerateReportRequest{ReferenceDate: "31/01/2026"}.ParseReferenceDate()
	assert.Error(t, err)
	_, err = GenerateReportRequest{CustomerIDs: []string{"nope"}}.ParseCustomerIDs()
	assert.Error(t, err)
}

func TestExportQuery_FormatOrDefault(t *testing.T) {
	assert.Equal(t, "xlsx", ExportQuery{}.FormatOrDefault())
	assert.Equal(t, "pdf", ExportQuery{Format: "pdf"}.FormatOrDefault())
}

func TestNewReportResponse(t *testing.T) {
	acme := risk.Customer{ID: uuid.New(), Code: "C001", Name: "Acme", CustomerRank: 1}
	report := risk.NewReport(risk.ReportRequest{
		ReferenceDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}, risk.DefaultPolicy())
	row := risk.NewReportRow(acme, decimal.NewFromInt(1200), decimal.NewFromInt(1200), decimal.NewFromInt(700))
	require.NoError(t, report.ReplaceRows([]risk.ReportRow{row}, []risk.Failure{
		{Code: risk.CodeInvalidRequest, Message: "Reference date is required"},
	}, time.Now()))

	resp := NewReportResponse(report)
	require.NotNil(t, resp.ReferenceDate)
	assert.Equal(t, "2026-01-31", *resp.ReferenceDate)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "C001", resp.Rows[0].Customer.Code)
	assert.True(t, resp.Totals.Subtotal.Equal(decimal.NewFromInt(2400)))
	assert.True(t, resp.Totals.SaldoCheques.Equal(decimal.NewFromInt(1900)))
	require.Len(t, resp.Failures, 1)
	assert.Nil(t, resp.Failures[0].CustomerID)
	assert.NotNil(t, resp.SelectedCustomers)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subtotal":"2400"`)
}

func TestNewReportResponse_NoDate(t *testing.T) {
	report := risk.NewReport(risk.ReportRequest{}, risk.DefaultPolicy())
	resp := NewReportResponse(report)
	assert.Nil(t, resp.ReferenceDate)
	assert.Empty(t, resp.Rows)
	assert.NotNil(t, resp.Rows)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reference_date":null`)
	assert.Contains(t, string(data), `"rows":[]`)
}

func TestDrillDownResponses(t *testing.T) {
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	lines := NewPendingLineResponses([]risk.SalesOrderLine{{
		OrderNumber:  "SO-1",
		OrderDate:    date,
		OrderState:   risk.OrderStateSale,
		LineSubtotal: decimal.NewFromInt(500),
	}})
	require.Len(t, lines, 1)
	assert.Equal(t, "2026-01-10", *lines[0].OrderDate)
	assert.Equal(t, "sale", lines[0].OrderState)

	entries := NewLedgerEntryResponses([]risk.LedgerEntry{{MoveName: "INV/1", Date: date, Balance: decimal.NewFromInt(10)}})
	require.Len(t, entries, 1)
	assert.Equal(t, "INV/1", entries[0].MoveName)

	cheques := NewChequeResponses([]risk.Payment{{PaymentNumber: "PAY-1", Amount: decimal.NewFromInt(7)}})
	require.Len(t, cheques, 1)
	assert.Nil(t, cheques[0].DueDate)

	assert.NotNil(t, NewChequeResponses(nil))
}
