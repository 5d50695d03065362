package cart

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Mutation outcomes
const (
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Metrics holds the cart instruments. A nil *Metrics records nothing.
type Metrics struct {
	meter     metric.Meter
	mutations *telemetry.Counter
}

// NewMetrics creates the cart instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	mutations, err := telemetry.NewCounter(meter,
		"cart_mutations_total",
		"Cart mutations by operation and outcome",
		"{mutation}",
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{meter: meter, mutations: mutations}, nil
}

func (m *Metrics) recordMutation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.Inc(ctx,
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
}

// observeSessions reports the number of live stores in r on every collection
func (m *Metrics) observeSessions(r *Registry) error {
	_, err := m.meter.Int64ObservableGauge("cart_active_sessions",
		metric.WithDescription("Cart sessions held in memory"),
		metric.WithUnit("{session}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(r.Len()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create gauge cart_active_sessions: %w", err)
	}
	return nil
}
