package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/joao-fontenele/cayocagi"

// InitMeterProvider installs a Prometheus-backed global MeterProvider with Go
// runtime instrumentation and returns the /metrics handler.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// Ticket decrement outcomes.
const (
	DecrementDebited = "debited"
	DecrementEmpty   = "empty"
	DecrementError   = "error"
)

// Metrics holds the lifecycle counters. A nil *Metrics records nothing.
type Metrics struct {
	transitions otelmetric.Int64Counter
	decrements  otelmetric.Int64Counter
	events      otelmetric.Int64Counter
}

// NewMetrics creates the counters on the global MeterProvider, so it must run
// after InitMeterProvider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	transitions, err := meter.Int64Counter("orders.transitions",
		otelmetric.WithDescription("Order status transitions by target status"))
	if err != nil {
		return nil, err
	}
	decrements, err := meter.Int64Counter("tickets.decrements",
		otelmetric.WithDescription("Ticket decrements attempted on approval by outcome"))
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("orders.events.failed",
		otelmetric.WithDescription("Lifecycle events that could not be published"))
	if err != nil {
		return nil, err
	}
	return &Metrics{transitions: transitions, decrements: decrements, events: events}, nil
}

func (m *Metrics) RecordTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordDecrement(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.decrements.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordPublishFailure(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("type", eventType)))
}
