// Package telemetry sets up OpenTelemetry trace and metric export for the
// server.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultMetricInterval is how often metrics are pushed to the collector.
const DefaultMetricInterval = 30 * time.Second

// Config selects where telemetry goes.
type Config struct {
	// Endpoint is an OTLP/HTTP collector, either host:port or a base URL such
	// as http://localhost:4318. Telemetry is disabled when empty.
	Endpoint string
	Insecure bool

	ServiceName    string
	ServiceVersion string

	// MetricInterval defaults to DefaultMetricInterval.
	MetricInterval time.Duration
}

// Enabled reports whether exporters will be created.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Providers holds the tracer and meter providers handed to the middleware.
type Providers struct {
	Tracer trace.TracerProvider
	Meter  metric.MeterProvider
}

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Setup creates the providers described by cfg and installs them as the
// global providers. With no endpoint it returns no-op providers and leaves
// the globals untouched.
func Setup(ctx context.Context, cfg Config) (*Providers, ShutdownFunc, error) {
	if !cfg.Enabled() {
		noop := &Providers{Tracer: tracenoop.NewTracerProvider(), Meter: metricnoop.NewMeterProvider()}
		return noop, func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	traceExp, err := otlptracehttp.New(ctx, traceOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOptions(cfg)...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("telemetry: creating metric exporter: %w", err)
	}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = DefaultMetricInterval
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return &Providers{Tracer: tp, Meter: mp}, shutdown, nil
}

// signalURL returns the per-signal URL for a base URL endpoint, or "" when
// the endpoint is a bare host:port.
func signalURL(endpoint, signal string) string {
	if !strings.Contains(endpoint, "://") {
		return ""
	}
	return strings.TrimRight(endpoint, "/") + "/v1/" + signal
}

func traceOptions(cfg Config) []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if u := signalURL(cfg.Endpoint, "traces"); u != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(u))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func metricOptions(cfg Config) []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	if u := signalURL(cfg.Endpoint, "metrics"); u != "" {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(u))
	} else {
		opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}
