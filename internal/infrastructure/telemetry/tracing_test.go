package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	customerID := uuid.New()

	_, span := StartServiceSpan(context.Background(), "customer_risk", "evaluate_customer",
		WithAttribute(SpanAttrCustomerID, customerID),
		WithAttribute(SpanAttrCustomerName, "Acme"),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "customer_risk.evaluate_customer", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())

	v, ok := spanAttr(spans[0], SpanAttrCustomerID)
	require.True(t, ok)
	assert.Equal(t, customerID.String(), v.AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "test")
	SetAttributes(span,
		SpanAttrIncluded, true,
		SpanAttrRows, 3,
		42, "non-string key",
		"dangling",
	)
	SetAttribute(span, SpanAttrBalance, "1200.00")
	span.End()

	got := sr.Ended()[0]
	included, ok := spanAttr(got, SpanAttrIncluded)
	require.True(t, ok)
	assert.True(t, included.AsBool())

	rows, ok := spanAttr(got, SpanAttrRows)
	require.True(t, ok)
	assert.Equal(t, int64(3), rows.AsInt64())

	balance, _ := spanAttr(got, SpanAttrBalance)
	assert.Equal(t, "1200.00", balance.AsString())
	assert.Len(t, got.Attributes(), 3)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "failing")
	RecordError(span, errors.New("ledger unavailable"))
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "ledger unavailable", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "ok")
	RecordError(span, nil)
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Unset, got.Status().Code)
	assert.Empty(t, got.Events())
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		SetAttribute(nil, "k", "v")
		RecordError(nil, errors.New("x"))
	})
}

func TestSpanFromContext(t *testing.T) {
	setupTestTracer(t)
	ctx, span := StartSpan(context.Background(), "parent")
	defer span.End()

	assert.Equal(t, span, SpanFromContext(ctx))
	assert.False(t, SpanFromContext(context.Background()).SpanContext().IsValid())
}

func TestNestedSpans(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := StartServiceSpan(context.Background(), "customer_risk", "generate")
	_, child := StartServiceSpan(ctx, "customer_risk", "evaluate_customer")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"text", "text"},
		{7, "7"},
		{int64(8), "8"},
		{1.5, "1.5"},
		{false, "false"},
		{[]string{"a", "b"}, `["a","b"]`},
		{struct{ X int }{1}, "{1}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toAttribute("k", tt.value).Value.Emit())
	}
}
