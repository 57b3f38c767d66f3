package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type (
	ShutdownFunc func(ctx context.Context) error

	// Telemetry bundles the providers handed to decorators, HTTP middleware
	// and the metrics client.
	Telemetry struct {
		TracerProvider otelTrace.TracerProvider
		MeterProvider  metric.MeterProvider
		MetricsHandler http.Handler

		shutdowns []ShutdownFunc
	}
)

// NewTelemetry exports traces over OTLP gRPC when an endpoint is configured
// and keeps metrics in a pull reader served by MetricsHandler when enabled.
// Everything else falls back to noop providers.
func NewTelemetry(ctx context.Context, cfg config.Telemetry, serviceVersion string) (*Telemetry, error) {
	t := &Telemetry{
		TracerProvider: noop.NewTracerProvider(),
		MeterProvider:  metricNoop.NewMeterProvider(),
		MetricsHandler: http.NotFoundHandler(),
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	if cfg.OTLPEndpoint != "" {
		tp, err := newTracerProvider(ctx, res, cfg)
		if err != nil {
			return nil, err
		}

		t.TracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(reader),
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(mp)

		t.MeterProvider = mp
		t.MetricsHandler = metricsSnapshotHandler(reader)
		t.shutdowns = append(t.shutdowns, mp.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	for _, shutdown := range t.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg config.Telemetry) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Traces.SamplerRatio))),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// metricsSnapshotHandler collects the reader on every request and writes the
// snapshot as JSON.
func metricsSnapshotHandler(reader *sdkmetric.ManualReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var snapshot metricdata.ResourceMetrics
		if err := reader.Collect(r.Context(), &snapshot); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot.ScopeMetrics)
	})
}
