package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold is used when DBMetricsConfig.SlowQueryThreshold is zero
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{Enabled: true, SlowQueryThreshold: DefaultSlowQueryThreshold}
}

// DBMetrics counts and times the queries issued by the read model providers
// and observes the connection pool on every collection.
type DBMetrics struct {
	meter          metric.Meter
	config         DBMetricsConfig
	logger         *zap.Logger
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	mu   sync.Mutex
	pool metric.Registration
}

// NewDBMetrics creates the query instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}

	queryTotal, err := NewCounter(meter, "db_query_total", "Total number of database queries by operation type", "{query}")
	if err != nil {
		return nil, err
	}
	slowQueryTotal, err := NewCounter(meter, "db_slow_query_total", "Total number of slow database queries", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &DBMetrics{
		meter:          meter,
		config:         cfg,
		logger:         logger,
		queryTotal:     queryTotal,
		queryDuration:  queryDuration,
		slowQueryTotal: slowQueryTotal,
	}, nil
}

// ObservePool reports sqlDB's pool statistics whenever metrics are collected.
// A second call replaces the observed pool.
func (m *DBMetrics) ObservePool(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return errors.New("observe pool: nil sql.DB")
	}

	conns, err := m.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return instrumentError("gauge", "db_pool_connections", err)
	}
	maxConns, err := m.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of connections in the pool"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return instrumentError("gauge", "db_pool_connections_max", err)
	}

	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	if err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.pool
	m.pool = reg
	m.mu.Unlock()
	if prev != nil {
		return prev.Unregister()
	}
	return nil
}

// Stop stops observing the pool. Safe to call multiple times.
func (m *DBMetrics) Stop() {
	m.mu.Lock()
	reg := m.pool
	m.pool = nil
	m.mu.Unlock()

	if reg == nil {
		return
	}
	if err := reg.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister pool metrics", zap.Error(err))
	}
}

// RecordQuery records one query. Queries slower than the threshold are
// also counted per table.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	op := AttrDBOperation.String(operation)
	m.queryTotal.Inc(ctx, op)
	m.queryDuration.RecordDuration(ctx, duration, op)

	if duration <= m.config.SlowQueryThreshold {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
}

// DBMetricsPlugin is a GORM plugin feeding DBMetrics from query callbacks.
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates a new GORM plugin for database metrics.
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name implements gorm.Plugin.
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

type queryStartKey struct{}

// Initialize implements gorm.Plugin. Providers only read, so the query,
// row and raw processors are the ones instrumented.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.Statement.Context = context.WithValue(statementContext(tx), queryStartKey{}, time.Now())
	}
	selectDone := func(tx *gorm.DB) { p.record(tx, "SELECT") }
	sqlDone := func(tx *gorm.DB) { p.record(tx, detectOperationType(tx.Statement.SQL.String())) }

	cb := db.Callback()
	steps := []struct {
		register func(name string, fn func(*gorm.DB)) error
		name     string
		fn       func(*gorm.DB)
	}{
		{cb.Query().Before("gorm:query").Register, "db_metrics:before_query", start},
		{cb.Row().Before("gorm:row").Register, "db_metrics:before_row", start},
		{cb.Raw().Before("gorm:raw").Register, "db_metrics:before_raw", start},
		{cb.Query().After("gorm:query").Register, "db_metrics:after_query", selectDone},
		{cb.Row().After("gorm:row").Register, "db_metrics:after_row", sqlDone},
		{cb.Raw().After("gorm:raw").Register, "db_metrics:after_raw", sqlDone},
	}
	for _, s := range steps {
		if err := s.register(s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *DBMetricsPlugin) record(tx *gorm.DB, operation string) {
	ctx := statementContext(tx)
	var elapsed time.Duration
	if began, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		elapsed = time.Since(began)
	}
	p.metrics.RecordQuery(ctx, operation, tx.Statement.Table, elapsed)
}

func statementContext(tx *gorm.DB) context.Context {
	if tx.Statement.Context != nil {
		return tx.Statement.Context
	}
	return context.Background()
}

// detectOperationType classifies a statement by its leading keyword.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"), strings.HasPrefix(sql, "WITH"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}

// RegisterDBMetrics instruments db and observes its pool. It returns nil
// when metrics are off; otherwise the caller must Stop the result on shutdown.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || meterProvider == nil || !meterProvider.IsEnabled() {
		logger.Debug("Database metrics disabled, skipping registration")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := metrics.ObservePool(sqlDB); err != nil {
		return nil, err
	}
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		metrics.Stop()
		return nil, err
	}

	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", metrics.config.SlowQueryThreshold))
	return metrics, nil
}
