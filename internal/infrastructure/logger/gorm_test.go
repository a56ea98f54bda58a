package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM ledger_entries", 3 }

	t.Run("logs errors", func(t *testing.T) {
		l, logs := newObserved()
		gl := NewGormLogger(l, GormConfig{Level: gormlogger.Warn})
		ctx := context.WithValue(context.Background(), ReportIDKey, "rep-1")

		gl.Trace(ctx, time.Now(), query, errors.New("relation does not exist"))

		entries := logs.FilterMessage("SQL Error").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "rep-1", entries[0].ContextMap()["report_id"])
		}
	})

	t.Run("ignores record not found", func(t *testing.T) {
		l, logs := newObserved()
		NewGormLogger(l, GormConfig{Level: gormlogger.Warn}).Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("cancelled queries are debug only", func(t *testing.T) {
		l, logs := newObserved()
		NewGormLogger(l, GormConfig{Level: gormlogger.Warn}).Trace(context.Background(), time.Now(), query, context.Canceled)
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		l, logs := newObserved()
		gl := NewGormLogger(l, GormConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond})
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	})

	t.Run("fast queries below info are skipped", func(t *testing.T) {
		l, logs := newObserved()
		gl := NewGormLogger(l, GormConfig{Level: gormlogger.Warn, SlowThreshold: time.Hour})
		gl.Trace(context.Background(), time.Now(), query, nil)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("record not found logged when asked", func(t *testing.T) {
		l, logs := newObserved()
		gl := NewGormLogger(l, GormConfig{Level: gormlogger.Warn, LogRecordNotFound: true})
		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.FilterMessage("SQL Error").Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := newObserved()
		gl := NewGormLogger(l, GormConfig{Level: gormlogger.Info}).LogMode(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query, errors.New("x"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("info level logs every query", func(t *testing.T) {
		l, logs := newObserved()
		NewGormLogger(l, GormConfig{Level: gormlogger.Info}).Trace(context.Background(), time.Now(), query, nil)
		assert.Equal(t, 1, logs.FilterMessage("SQL Query").Len())
	})
}

func TestGormLogger_Messages(t *testing.T) {
	l, logs := newObserved()
	gl := NewGormLogger(l, GormConfig{Level: gormlogger.Info, LogRecordNotFound: true})

	gl.Info(context.Background(), "migrated %d tables", 5)
	gl.Warn(context.Background(), "deprecated %s", "column")
	gl.Error(context.Background(), "failed %s", "query")

	assert.Equal(t, 3, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
