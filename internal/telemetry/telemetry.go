// Package telemetry stands up OpenTelemetry tracing and metrics for this
// module's executor and pipeline façade: one Init call at process startup,
// a shutdown func deferred by the caller, exporters chosen by Config
// rather than hardcoded.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// metricsHandler holds the promhttp handler for the Prometheus exporter's
// scrape endpoint, set once Init has configured the ExporterOTLP metric
// reader. Nil until then, and nil for any other exporter.
var (
	metricsHandlerMu sync.RWMutex
	metricsHandler   http.Handler
)

// MetricsHandler returns the HTTP handler a caller should mount at
// "/metrics" to let Prometheus scrape this process, or nil if Init hasn't
// been called with ExporterOTLP.
func MetricsHandler() http.Handler {
	metricsHandlerMu.RLock()
	defer metricsHandlerMu.RUnlock()
	return metricsHandler
}

// Exporter selects where spans and metrics go.
type Exporter string

const (
	// ExporterNone disables tracing/metrics entirely: Init returns no-op
	// providers and a no-op shutdown func.
	ExporterNone Exporter = "none"
	// ExporterStdout writes spans and metrics to stdout, for local runs.
	ExporterStdout Exporter = "stdout"
	// ExporterOTLP ships spans over OTLP/gRPC and exposes metrics for
	// Prometheus to scrape.
	ExporterOTLP Exporter = "otlp"
)

// Config configures Init.
type Config struct {
	ServiceName string
	Exporter    Exporter
	// OTLPEndpoint is the collector address used when Exporter is
	// ExporterOTLP. Empty uses the OTLP exporter's own default resolution
	// (typically the OTEL_EXPORTER_OTLP_ENDPOINT environment variable).
	OTLPEndpoint string
}

// DefaultConfig returns a Config with tracing/metrics disabled, suitable
// for tests and library use that hasn't opted into observability.
func DefaultConfig() Config {
	return Config{ServiceName: "pipeline", Exporter: ExporterNone}
}

// Providers bundles the tracer and meter this module's components pull
// their Tracer/Meter from.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Init stands up a TracerProvider and MeterProvider per cfg and installs
// them as the global providers, returning a Providers handle and a
// shutdown func the caller must defer-call at process exit.
func Init(ctx context.Context, cfg Config) (Providers, func(context.Context) error, error) {
	if cfg.Exporter == ExporterNone || cfg.Exporter == "" {
		return Providers{Tracer: otel.Tracer(cfg.ServiceName), Meter: otel.Meter(cfg.ServiceName)},
			func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return Providers{}, nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp, tpShutdown, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, nil, fmt.Errorf("telemetry: tracer provider: %w", err)
	}
	mp, mpShutdown, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, nil, fmt.Errorf("telemetry: meter provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		if err := tpShutdown(ctx); err != nil {
			return err
		}
		return mpShutdown(ctx)
	}

	return Providers{
		Tracer: tp.Tracer(cfg.ServiceName),
		Meter:  mp.Meter(cfg.ServiceName),
	}, shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	var exp sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		exp, err = otlptracegrpc.New(ctx, opts...)
	default:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	return tp, tp.Shutdown, nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	switch cfg.Exporter {
	case ExporterOTLP:
		exp, err := prometheus.New()
		if err != nil {
			return nil, nil, err
		}
		// The otel Prometheus exporter registers its collector with the
		// default Prometheus registry, so promhttp.Handler() picks up
		// everything it exports without any extra plumbing.
		metricsHandlerMu.Lock()
		metricsHandler = promhttp.Handler()
		metricsHandlerMu.Unlock()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		)
		return mp, mp.Shutdown, nil
	default:
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, err
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
			sdkmetric.WithResource(res),
		)
		return mp, mp.Shutdown, nil
	}
}
