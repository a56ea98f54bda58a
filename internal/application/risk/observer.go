package risk

import (
	"context"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/infrastructure/logger"
	"github.com/erp/customer-risk/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// evaluationObserver opens a span per customer and reports the outcome to logs and metrics
type evaluationObserver struct {
	logger  *zap.Logger
	metrics Metrics
}

func (o *evaluationObserver) CustomerStarted(ctx context.Context, customer risk.Customer) context.Context {
	ctx, _ = telemetry.StartServiceSpan(ctx, "customer_risk", "evaluate_customer",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, customer.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCustomerName, customer.DisplayName()),
	)
	return ctx
}

func (o *evaluationObserver) CustomerFinished(ctx context.Context, customer risk.Customer, row risk.ReportRow, included bool, err error) {
	span := telemetry.SpanFromContext(ctx)
	defer span.End()

	o.metrics.RecordCustomer(ctx, included, err)

	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, o.logger).Warn("Customer risk evaluation failed",
			zap.String("customer_id", customer.ID.String()),
			zap.String("customer", customer.DisplayName()),
			zap.String("code", risk.ErrorCode(err)),
			zap.Error(err),
		)
		return
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrIncluded, included,
		telemetry.SpanAttrPending, row.PendingAmount.String(),
		telemetry.SpanAttrBalance, row.Balance.String(),
		telemetry.SpanAttrCheques, row.Cheques.String(),
	)
}
