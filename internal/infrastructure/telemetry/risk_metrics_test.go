package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewRiskMetrics_NilMeter(t *testing.T) {
	m, err := NewRiskMetrics(RiskMetricsConfig{})
	assert.Nil(t, m)
	require.Error(t, err)
	assert.Equal(t, "NewRiskMetrics: meter cannot be nil", err.Error())
}

func TestRiskMetrics_RecordCustomer(t *testing.T) {
	reader, provider := setupTestMeter(t)
	m, err := NewRiskMetrics(RiskMetricsConfig{Meter: provider.Meter("risk")})
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordCustomer(ctx, true, nil)
	m.RecordCustomer(ctx, true, nil)
	m.RecordCustomer(ctx, false, nil)
	m.RecordCustomer(ctx, false, risk.NewProviderError(risk.SourceLedger, uuid.New(), errors.New("timeout")))
	m.RecordCustomer(ctx, false, errors.New("unexpected"))

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, rm, "risk_customer_evaluations_total", AttrOutcome.String(OutcomeIncluded)))
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_customer_evaluations_total", AttrOutcome.String(OutcomeSkipped)))
	assert.Equal(t, int64(2), sumValue(t, rm, "risk_customer_evaluations_total", AttrOutcome.String(OutcomeFailed)))
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_customer_failures_total", AttrErrorCode.String(risk.CodeProviderFailure)))
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_customer_failures_total", AttrErrorCode.String("UNKNOWN")))
}

func TestRiskMetrics_RecordRun(t *testing.T) {
	reader, provider := setupTestMeter(t)
	m, err := NewRiskMetrics(RiskMetricsConfig{Meter: provider.Meter("risk")})
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordRun(ctx, 5, 3, 0, 200*time.Millisecond)
	m.RecordRun(ctx, 4, 2, 1, time.Second)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_report_runs_total", AttrOutcome.String(OutcomeSuccess)))
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_report_runs_total", AttrOutcome.String(OutcomeFailed)))
	assert.Equal(t, int64(5), sumValue(t, rm, "risk_report_rows_total"))

	g, ok := findMetric(rm, "risk_report_customers")
	require.True(t, ok)
	assert.Equal(t, int64(4), g.Data.(metricdata.Gauge[int64]).DataPoints[0].Value)
}

func TestRiskMetrics_RecordExport(t *testing.T) {
	reader, provider := setupTestMeter(t)
	m, err := NewRiskMetrics(RiskMetricsConfig{Meter: provider.Meter("risk")})
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordExport(ctx, "xlsx", nil)
	m.RecordExport(ctx, "pdf", errors.New("write failed"))

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_report_exports_total",
		AttrExportFormat.String("xlsx"), AttrOutcome.String(OutcomeSuccess)))
	assert.Equal(t, int64(1), sumValue(t, rm, "risk_report_exports_total",
		AttrExportFormat.String("pdf"), AttrOutcome.String(OutcomeFailed)))
}
