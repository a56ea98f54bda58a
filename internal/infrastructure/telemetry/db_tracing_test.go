package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID     uint `gorm:"primaryKey"`
	Amount float64
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ledgerRow{}))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.False(t, DefaultDBTracingConfig().LogFullSQL)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	require.NoError(t, p.Register(db))
	require.NoError(t, NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, nil).Register(db))
}

func TestDBTracingPlugin_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())

	require.NoError(t, p.Register(db))
	assert.Error(t, p.Register(db))
}

func TestDBTracingPlugin_QuerySpan(t *testing.T) {
	sr := setupTestTracer(t)
	db := setupTestDB(t)
	require.NoError(t, NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, nil).Register(db))
	require.NoError(t, db.Create(&ledgerRow{Amount: 1200}).Error)

	ctx, parent := StartSpan(context.Background(), "customer_risk.balance")
	var rows []ledgerRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var found bool
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			found = true
		}
	}
	assert.True(t, found, "expected a database span under the parent span")
}

func TestDBTracingPlugin_AfterQuery(t *testing.T) {
	sr := setupTestTracer(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 10 * time.Millisecond}, nil)

	ctx, span := StartSpan(context.Background(), "query")
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))
	db := &gorm.DB{Config: &gorm.Config{}}
	db.Statement = &gorm.Statement{DB: db, Context: ctx, Table: "payments"}
	db.RowsAffected = 2
	db.Error = errors.New("connection reset")

	p.afterQuery(db)
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	slow, ok := spanAttr(got, "db.slow_query")
	require.True(t, ok)
	assert.True(t, slow.AsBool())
	rows, _ := spanAttr(got, "db.rows_affected")
	assert.Equal(t, int64(2), rows.AsInt64())

	var slowEvent bool
	for _, e := range got.Events() {
		if e.Name == "slow_query_warning" {
			slowEvent = true
		}
	}
	assert.True(t, slowEvent)
}

func TestDBTracingPlugin_AfterQuery_RecordNotFound(t *testing.T) {
	sr := setupTestTracer(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	ctx, span := StartSpan(context.Background(), "query")
	db := &gorm.DB{Config: &gorm.Config{}}
	db.Statement = &gorm.Statement{DB: db, Context: ctx}
	db.Error = gorm.ErrRecordNotFound

	p.afterQuery(db)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := WithQueryStartTime(context.Background())
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), start, time.Second)
}
