package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long a provider may spend flushing on shutdown
const shutdownTimeout = 10 * time.Second

func serviceVersionOrDev(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}

// serviceResource describes this process to the collector
func serviceResource(name, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.ServiceVersion(serviceVersionOrDev(version)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownProvider flushes and stops an SDK provider within shutdownTimeout
func shutdownProvider(ctx context.Context, log *zap.Logger, kind string, shutdown func(context.Context) error) error {
	log.Info("Shutting down OpenTelemetry " + kind + " provider")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+kind+" provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", kind, err)
	}
	return nil
}
