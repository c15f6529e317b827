package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// StoreMetrics holds the business counters of the store service.
// A nil *StoreMetrics records nothing.
type StoreMetrics struct {
	ordersPlaced   otelmetric.Int64Counter
	ordersRejected otelmetric.Int64Counter
	cartItemsAdded otelmetric.Int64Counter
}

func NewStoreMetrics(meter otelmetric.Meter) (*StoreMetrics, error) {
	placed, err := meter.Int64Counter("store.orders.placed",
		otelmetric.WithDescription("Orders committed"),
		otelmetric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("store.orders.rejected",
		otelmetric.WithDescription("Order placements rolled back, by reason"),
		otelmetric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	added, err := meter.Int64Counter("store.cart.items_added",
		otelmetric.WithDescription("Line items added to carts"),
		otelmetric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{
		ordersPlaced:   placed,
		ordersRejected: rejected,
		cartItemsAdded: added,
	}, nil
}

func (m *StoreMetrics) OrderPlaced(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1)
}

func (m *StoreMetrics) OrderRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("reason", reason)))
}

func (m *StoreMetrics) CartItemAdded(ctx context.Context) {
	if m == nil {
		return
	}
	m.cartItemsAdded.Add(ctx, 1)
}
