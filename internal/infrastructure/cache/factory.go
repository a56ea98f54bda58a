package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportStore is a closable report store
type ReportStore interface {
	Save(ctx context.Context, report *risk.Report) error
	Get(ctx context.Context, id uuid.UUID) (*risk.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

// ReportStoreFactory creates report stores based on configuration
type ReportStoreFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportStoreFactoryOption is a functional option for configuring the factory
type ReportStoreFactoryOption func(*ReportStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportStoreFactoryOption {
	return func(f *ReportStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) ReportStoreFactoryOption {
	return func(f *ReportStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportStoreFactory creates a new factory. Reports expire after ttl.
func NewReportStoreFactory(cfg config.RedisConfig, ttl time.Duration, opts ...ReportStoreFactoryOption) *ReportStoreFactory {
	f := &ReportStoreFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-backed report store
func (f *ReportStoreFactory) CreateRedisStore(ctx context.Context) (*RedisReportStore, error) {
	store, err := NewRedisReportStore(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis report store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory report store.
// WARNING: In-memory stores do not share reports across process instances,
// so a report generated on one instance is not found on another.
func (f *ReportStoreFactory) CreateInMemoryStore() *InMemoryReportStore {
	return NewInMemoryReportStore(f.ttl)
}

// CreateStore uses Redis when it is enabled and reachable. Otherwise it falls
// back to memory, unless fallback is disabled.
func (f *ReportStoreFactory) CreateStore(ctx context.Context) (ReportStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory report store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("Using Redis report store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for report storage but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory report store. "+
		"Reports will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}

var (
	_ ReportStore = (*InMemoryReportStore)(nil)
	_ ReportStore = (*RedisReportStore)(nil)
)
