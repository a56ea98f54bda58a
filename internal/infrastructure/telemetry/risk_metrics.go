package telemetry

import (
	"context"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RiskMetrics records customer risk report activity.
// It satisfies the metrics port of the risk application service.
type RiskMetrics struct {
	logger *zap.Logger

	runTotal        *Counter
	runDuration     *Histogram
	runCustomers    *Gauge
	customerTotal   *Counter
	failureTotal    *Counter
	exportTotal     *Counter
	reportRowsTotal *Counter
}

// RiskMetricsConfig holds configuration for risk metrics.
type RiskMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// Outcome labels
const (
	OutcomeIncluded = "included"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeSuccess  = "success"
)

// NewRiskMetrics creates the risk report instruments on the given meter.
func NewRiskMetrics(cfg RiskMetricsConfig) (*RiskMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &RiskMetrics{logger: logger}

	var err error
	m.runTotal, err = NewCounter(cfg.Meter,
		"risk_report_runs_total",
		"Total number of customer risk report computations",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	m.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "risk_report_duration_seconds",
		Description: "Customer risk report computation latency",
		Unit:        "s",
		Boundaries:  ReportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	m.runCustomers, err = NewGauge(cfg.Meter,
		"risk_report_customers",
		"Customers resolved by the last report computation",
		"{customers}",
	)
	if err != nil {
		return nil, err
	}

	m.customerTotal, err = NewCounter(cfg.Meter,
		"risk_customer_evaluations_total",
		"Customer evaluations by outcome",
		"{customers}",
	)
	if err != nil {
		return nil, err
	}

	m.failureTotal, err = NewCounter(cfg.Meter,
		"risk_customer_failures_total",
		"Customer evaluation failures by error code",
		"{failures}",
	)
	if err != nil {
		return nil, err
	}

	m.reportRowsTotal, err = NewCounter(cfg.Meter,
		"risk_report_rows_total",
		"Report rows produced",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	m.exportTotal, err = NewCounter(cfg.Meter,
		"risk_report_exports_total",
		"Report exports by format and outcome",
		"{exports}",
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records a completed report computation.
func (m *RiskMetrics) RecordRun(ctx context.Context, customers, rows, failures int, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if failures > 0 {
		outcome = OutcomeFailed
	}
	m.runTotal.Inc(ctx, AttrOutcome.String(outcome))
	m.runDuration.RecordDuration(ctx, elapsed)
	m.runCustomers.Record(ctx, int64(customers))
	m.reportRowsTotal.Add(ctx, int64(rows))
}

// RecordCustomer records the outcome of a single customer evaluation.
func (m *RiskMetrics) RecordCustomer(ctx context.Context, included bool, err error) {
	switch {
	case err != nil:
		m.customerTotal.Inc(ctx, AttrOutcome.String(OutcomeFailed))
		m.failureTotal.Inc(ctx, AttrErrorCode.String(errorCode(err)))
	case included:
		m.customerTotal.Inc(ctx, AttrOutcome.String(OutcomeIncluded))
	default:
		m.customerTotal.Inc(ctx, AttrOutcome.String(OutcomeSkipped))
	}
}

// RecordExport records a report export.
func (m *RiskMetrics) RecordExport(ctx context.Context, format string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
	}
	m.exportTotal.Inc(ctx,
		AttrExportFormat.String(format),
		AttrOutcome.String(outcome),
	)
}

func errorCode(err error) string {
	if code := risk.ErrorCode(err); code != "" {
		return code
	}
	return "UNKNOWN"
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewRiskMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
