package storage

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Storage call outcomes recorded on the duration histogram
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// TracedStore wraps a cart.KeyValueStore with one span per operation and,
// when given a histogram, a latency sample per operation
type TracedStore struct {
	next     cart.KeyValueStore
	driver   string
	duration *telemetry.Histogram
}

// TracedStoreOption configures a TracedStore
type TracedStoreOption func(*TracedStore)

// WithDurationHistogram records the latency of every call on h
func WithDurationHistogram(h *telemetry.Histogram) TracedStoreOption {
	return func(s *TracedStore) {
		s.duration = h
	}
}

// NewDurationHistogram creates the storage latency histogram on meter
func NewDurationHistogram(meter metric.Meter) (*telemetry.Histogram, error) {
	return telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "cart_storage_duration_seconds",
		Description: "Latency of cart storage calls",
		Unit:        "s",
		Boundaries:  []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
}

// NewTracedStore wraps next. driver names the backend in span and metric
// attributes.
func NewTracedStore(next cart.KeyValueStore, driver string, opts ...TracedStoreOption) *TracedStore {
	s := &TracedStore{next: next, driver: driver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements cart.KeyValueStore
func (s *TracedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.start(ctx, "cart_storage.get", key)
	defer span.End()
	begin := time.Now()

	value, err := s.next.Get(ctx, key)
	switch {
	case errors.Is(err, cart.ErrKeyNotFound):
		telemetry.SetAttribute(span, telemetry.SpanAttrKeyFound, false)
		s.observe(ctx, "get", begin, outcomeNotFound)
	case err != nil:
		telemetry.RecordError(span, err)
		s.observe(ctx, "get", begin, outcomeError)
	default:
		telemetry.SetAttribute(span, telemetry.SpanAttrKeyFound, true)
		telemetry.SetAttribute(span, telemetry.SpanAttrPayloadBytes, len(value))
		s.observe(ctx, "get", begin, outcomeOK)
	}
	return value, err
}

// Set implements cart.KeyValueStore
func (s *TracedStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.start(ctx, "cart_storage.set", key)
	defer span.End()
	begin := time.Now()

	telemetry.SetAttribute(span, telemetry.SpanAttrPayloadBytes, len(value))
	err := s.next.Set(ctx, key, value)
	telemetry.RecordError(span, err)
	s.observe(ctx, "set", begin, outcomeOf(err))
	return err
}

// Delete implements cart.KeyValueStore
func (s *TracedStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.start(ctx, "cart_storage.delete", key)
	defer span.End()
	begin := time.Now()

	err := s.next.Delete(ctx, key)
	telemetry.RecordError(span, err)
	s.observe(ctx, "delete", begin, outcomeOf(err))
	return err
}

// Close implements cart.KeyValueStore
func (s *TracedStore) Close() error {
	return s.next.Close()
}

func (s *TracedStore) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return telemetry.StartSpan(ctx, name,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrStorageKey, key),
		telemetry.WithAttribute(telemetry.SpanAttrStorageDriver, s.driver),
	)
}

func (s *TracedStore) observe(ctx context.Context, op string, begin time.Time, outcome string) {
	if s.duration == nil {
		return
	}
	s.duration.RecordDuration(ctx, time.Since(begin),
		attribute.String("operation", op),
		attribute.String("driver", s.driver),
		attribute.String("outcome", outcome),
	)
}

func outcomeOf(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

var _ cart.KeyValueStore = (*TracedStore)(nil)
