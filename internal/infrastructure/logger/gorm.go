package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold is the duration above which a query is logged as slow
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// GormConfig configures GormLogger
type GormConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold of zero disables slow query warnings
	SlowThreshold time.Duration
	// LogRecordNotFound reports gorm.ErrRecordNotFound as an error.
	// Providers treat missing rows as empty results, so it is off by default.
	LogRecordNotFound bool
}

// GormLogger routes GORM's logging through zap. Query traces carry the
// request and report IDs of the context the provider query ran in.
type GormLogger struct {
	log *zap.Logger
	cfg GormConfig
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a GORM logger named "gorm" under zapLogger
func NewGormLogger(zapLogger *zap.Logger, cfg GormConfig) *GormLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &GormLogger{log: zapLogger.Named("gorm"), cfg: cfg}
}

// LogMode returns a copy of the logger at level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.cfg.Level = level
	return &cp
}

func (l *GormLogger) enabled(level gormlogger.LogLevel) bool {
	return l.cfg.Level >= level
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Info) {
		l.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Warn) {
		l.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Error) {
		l.log.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement. Failures log at error, except
// cancellations which are expected when a client goes away.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if !l.enabled(gormlogger.Error) {
		return
	}
	if err != nil && !l.cfg.LogRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold
	if err == nil && !l.enabled(gormlogger.Info) && !(slow && l.enabled(gormlogger.Warn)) {
		return
	}

	statement := func() []zap.Field {
		sql, rows := fc()
		fields := append(correlationFields(ctx),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
		return fields
	}

	switch {
	case errors.Is(err, context.Canceled):
		l.log.Debug("SQL cancelled", statement()...)
	case err != nil:
		l.log.Error("SQL Error", append(statement(), zap.Error(err))...)
	case slow && l.enabled(gormlogger.Warn):
		l.log.Warn("SLOW SQL >= "+l.cfg.SlowThreshold.String(), statement()...)
	default:
		l.log.Debug("SQL Query", statement()...)
	}
}

// MapGormLogLevel maps a configured level name to GORM's levels. Unknown names map to warn.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	levels := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"debug":  gormlogger.Info,
	}
	if l, ok := levels[level]; ok {
		return l
	}
	return gormlogger.Warn
}
