package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func valueFor(sum metricdata.Sum[int64], key, want string) int64 {
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == want {
			total += dp.Value
		}
	}
	return total
}

func TestShopMetrics_RecordPurchase(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewShopMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewShopMetrics: %v", err)
	}
	ctx := context.Background()

	m.RecordPurchase(ctx, OutcomeSuccess, 3)
	m.RecordPurchase(ctx, OutcomeSuccess, 2)
	m.RecordPurchase(ctx, OutcomeInsufficient, 7)

	got := collect(t, reader)
	if n := valueFor(got["sweetshop.purchases"], "outcome", OutcomeSuccess); n != 2 {
		t.Errorf("success purchases: got %d, want 2", n)
	}
	if n := valueFor(got["sweetshop.purchases"], "outcome", OutcomeInsufficient); n != 1 {
		t.Errorf("insufficient purchases: got %d, want 1", n)
	}
	units := got["sweetshop.units_sold"]
	if len(units.DataPoints) != 1 || units.DataPoints[0].Value != 5 {
		t.Errorf("units sold: got %+v, want 5", units.DataPoints)
	}
}

func TestShopMetrics_RecordCacheLookup(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewShopMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewShopMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.RecordCacheLookup(ctx, false)

	got := collect(t, reader)["sweetshop.cache.lookups"]
	if valueFor(got, "result", "hit") != 1 || valueFor(got, "result", "miss") != 2 {
		t.Errorf("unexpected cache lookups: %+v", got.DataPoints)
	}
}

func TestShopMetrics_NilIsNoop(t *testing.T) {
	var m *ShopMetrics
	m.RecordPurchase(context.Background(), OutcomeSuccess, 1)
	m.RecordCacheLookup(context.Background(), true)
	m.RecordSoldOut(context.Background())
}
