package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCounter(t *testing.T) {
	reader, provider := setupTestMeter(t)
	ctx := context.Background()

	c, err := NewCounter(provider.Meter("test"), "test_total", "test counter", "{calls}")
	require.NoError(t, err)

	c.Inc(ctx, AttrOutcome.String("success"))
	c.Add(ctx, 4, AttrOutcome.String("success"))
	c.Inc(ctx, AttrOutcome.String("failed"))

	rm := collect(t, reader)
	assert.Equal(t, int64(5), sumValue(t, rm, "test_total", AttrOutcome.String("success")))
	assert.Equal(t, int64(1), sumValue(t, rm, "test_total", AttrOutcome.String("failed")))
}

func TestHistogram(t *testing.T) {
	reader, provider := setupTestMeter(t)
	ctx := context.Background()

	h, err := NewHistogram(provider.Meter("test"), HistogramOpts{
		Name:        "test_duration_seconds",
		Description: "test histogram",
		Unit:        "s",
		Boundaries:  ReportDurationBuckets,
	})
	require.NoError(t, err)

	h.Record(ctx, 0.2)
	h.RecordDuration(ctx, 3*time.Second)

	m, ok := findMetric(collect(t, reader), "test_duration_seconds")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, ReportDurationBuckets, hist.DataPoints[0].Bounds)
}

func TestGauge_KeepsLastValue(t *testing.T) {
	reader, provider := setupTestMeter(t)
	ctx := context.Background()
	meter := provider.Meter("test")

	g, err := NewGauge(meter, "test_gauge", "int gauge", "{items}")
	require.NoError(t, err)

	g.Record(ctx, 3)
	g.Record(ctx, 7)

	rm := collect(t, reader)
	m, ok := findMetric(rm, "test_gauge")
	require.True(t, ok)
	gauge := m.Data.(metricdata.Gauge[int64])
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
}
