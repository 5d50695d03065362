package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "test-service",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, cfg.ServiceName, tp.GetConfig().ServiceName)

	// No-op tracer is still usable
	_, span := tp.Tracer("test").Start(ctx, "noop")
	span.End()

	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "test-service",
		Insecure:          true,
	}

	// The gRPC exporter connects lazily, so creation succeeds without a collector
	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.True(t, tp.IsEnabled())

	_ = tp.Shutdown(ctx)
}

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan_Attributes(t *testing.T) {
	recorder := newRecorder(t)

	ctx, span := telemetry.StartSpan(context.Background(), "cart_storage.set",
		telemetry.WithAttribute(telemetry.SpanAttrStorageKey, "shopping-cart"),
		telemetry.WithAttribute(telemetry.SpanAttrPayloadBytes, 42),
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrKeyFound, true)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "cart_storage.set", ended[0].Name())

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "shopping-cart", attrs[telemetry.SpanAttrStorageKey])
	assert.Equal(t, "42", attrs[telemetry.SpanAttrPayloadBytes])
	assert.Equal(t, "true", attrs[telemetry.SpanAttrKeyFound])
}

func TestRecordError(t *testing.T) {
	recorder := newRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "failing")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
}

func TestRegisterDBTracing(t *testing.T) {
	logger := zaptest.NewLogger(t)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("disabled is a no-op", func(t *testing.T) {
		err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{Enabled: false}, logger)
		assert.NoError(t, err)
	})

	t.Run("enabled registers plugin", func(t *testing.T) {
		err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "sqlite",
		}, logger)
		require.NoError(t, err)
		_, ok := db.Config.Plugins["otelgorm"]
		assert.True(t, ok)
	})
}
