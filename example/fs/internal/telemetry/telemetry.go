package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kroma-labs/hedgefs-go/example/fs/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Shutdown tears down the providers installed by Setup.
type Shutdown func(context.Context) error

// Setup installs global OpenTelemetry providers: traces exported over
// OTLP/gRPC and metrics scraped by Prometheus from /metrics on the
// default mux. The hedging library picks both up through the global
// otel providers.
func Setup(ctx context.Context) (Shutdown, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp, err := setupTracing(ctx, res)
	if err != nil {
		return nil, err
	}
	mp, err := setupMetrics(res)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		terr := tp.Shutdown(ctx)
		if merr := mp.Shutdown(ctx); merr != nil {
			return merr
		}
		return terr
	}, nil
}

func setupTracing(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func setupMetrics(res *resource.Resource) (*metric.MeterProvider, error) {
	// The exporter registers with the global prometheus registry, which
	// promhttp serves.
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	http.Handle("/metrics", promhttp.Handler())
	return mp, nil
}
