package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Purchase outcomes recorded on sweetshop.purchases.
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_stock"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// ShopMetrics holds the business instruments of the sweet shop.
type ShopMetrics struct {
	purchases    metric.Int64Counter
	unitsSold    metric.Int64Counter
	cacheLookups metric.Int64Counter
	soldOut      metric.Int64Counter
}

// NewShopMetrics creates the instruments on a meter from mp. Pass
// otel.GetMeterProvider() in production; tests pass a provider with a manual
// reader.
func NewShopMetrics(mp metric.MeterProvider) (*ShopMetrics, error) {
	meter := mp.Meter("github.com/ghuser/sweetshop")

	purchases, err := meter.Int64Counter("sweetshop.purchases",
		metric.WithDescription("Purchase attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("purchases counter: %w", err)
	}
	unitsSold, err := meter.Int64Counter("sweetshop.units_sold",
		metric.WithDescription("Units removed from stock by purchases"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("units sold counter: %w", err)
	}
	cacheLookups, err := meter.Int64Counter("sweetshop.cache.lookups",
		metric.WithDescription("Sweet cache lookups by result"))
	if err != nil {
		return nil, fmt.Errorf("cache lookups counter: %w", err)
	}
	soldOut, err := meter.Int64Counter("sweetshop.sold_out",
		metric.WithDescription("Sweets whose stock reached zero"))
	if err != nil {
		return nil, fmt.Errorf("sold out counter: %w", err)
	}

	return &ShopMetrics{
		purchases:    purchases,
		unitsSold:    unitsSold,
		cacheLookups: cacheLookups,
		soldOut:      soldOut,
	}, nil
}

// RecordPurchase counts one purchase attempt. units is added to
// sweetshop.units_sold only for successful purchases.
func (m *ShopMetrics) RecordPurchase(ctx context.Context, outcome string, units int64) {
	if m == nil {
		return
	}
	m.purchases.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == OutcomeSuccess && units > 0 {
		m.unitsSold.Add(ctx, units)
	}
}

func (m *ShopMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *ShopMetrics) RecordSoldOut(ctx context.Context) {
	if m == nil {
		return
	}
	m.soldOut.Add(ctx, 1)
}
