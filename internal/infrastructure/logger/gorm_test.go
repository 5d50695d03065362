package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)

	changed, ok := gormLog.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Warn)
	ctx := context.Background()

	gormLog.Info(ctx, "info %d", 1)
	gormLog.Warn(ctx, "warn %d", 2)
	gormLog.Error(ctx, "error %d", 3)

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn 2", entries[0].Message)
	assert.Equal(t, "error 3", entries[1].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		wantMsg string
	}{
		{name: "error", level: gormlogger.Error, err: errors.New("connection reset"), wantMsg: "SQL Error"},
		{name: "record not found is not an error", level: gormlogger.Error, err: gormlogger.ErrRecordNotFound},
		{name: "record not found traced as query", level: gormlogger.Info, err: gormlogger.ErrRecordNotFound, wantMsg: "SQL Query"},
		{name: "slow query", level: gormlogger.Warn, elapsed: time.Second, wantMsg: "Slow SQL"},
		{name: "normal query at info", level: gormlogger.Info, wantMsg: "SQL Query"},
		{name: "normal query at warn", level: gormlogger.Warn},
		{name: "silent", level: gormlogger.Silent, err: errors.New("ignored")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormLog, recorded := newObservedGormLogger(tt.level)

			gormLog.Trace(context.Background(), time.Now().Add(-tt.elapsed),
				sqlFunc(`SELECT * FROM "cart_storage"`, 1), tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, recorded.Len())
				return
			}
			require.Equal(t, 1, recorded.Len())
			assert.Equal(t, tt.wantMsg, recorded.All()[0].Message)
		})
	}
}

func TestGormLogger_Trace_SlowThresholdDisabled(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(0))

	gormLog.Trace(context.Background(), time.Now().Add(-time.Hour), sqlFunc("SELECT 1", 1), nil)

	assert.Zero(t, recorded.Len())
}

func TestGormLogger_Trace_WithRequestID(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")

	gormLog.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 1), nil)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
