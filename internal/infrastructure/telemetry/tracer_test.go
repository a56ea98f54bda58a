package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "customer-risk",
	}

	tp, err := NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, "customer-risk", tp.GetConfig().ServiceName)
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := MetricsConfig{
		Enabled:        false,
		ExportInterval: 30 * time.Second,
		ServiceName:    "customer-risk",
	}

	mp, err := NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, 30*time.Second, mp.GetConfig().ExportInterval)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestConfig_ServiceVersion(t *testing.T) {
	assert.Equal(t, "dev", Config{}.serviceVersion())
	assert.Equal(t, "1.4.0", Config{ServiceVersion: "1.4.0"}.serviceVersion())
}

func TestMetricsConfig_ExportInterval(t *testing.T) {
	assert.Equal(t, DefaultExportInterval, MetricsConfig{}.exportInterval())
	assert.Equal(t, 5*time.Second, MetricsConfig{ExportInterval: 5 * time.Second}.exportInterval())
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{1.5, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := samplerFor(tt.ratio).Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, tt.want, "ratio %v", tt.ratio)
	}
}

func TestServiceResource(t *testing.T) {
	res, err := serviceResource("customer-risk", "")
	require.NoError(t, err)

	var name, version string
	for _, kv := range res.Attributes() {
		switch kv.Key {
		case "service.name":
			name = kv.Value.AsString()
		case "service.version":
			version = kv.Value.AsString()
		}
	}
	assert.Equal(t, "customer-risk", name)
	assert.Equal(t, "dev", version)
}
