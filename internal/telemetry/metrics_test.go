package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(mp)

	m, err := NewMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "approved")
	m.RecordDecrement(ctx, DecrementDebited)
	m.RecordDecrement(ctx, DecrementEmpty)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics[0].Metrics {
		sum, ok := sm.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			totals[sm.Name] += dp.Value
		}
	}
	assert.Equal(t, int64(1), totals["orders.transitions"])
	assert.Equal(t, int64(2), totals["tickets.decrements"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition(context.Background(), "rejected")
		m.RecordDecrement(context.Background(), DecrementError)
		m.RecordPublishFailure(context.Background(), "order.created")
	})
}
