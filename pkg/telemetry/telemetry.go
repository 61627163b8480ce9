// SPDX-FileCopyrightText: 2025 CyberShield Pro
//
// SPDX-License-Identifier: Apache-2.0

// Package telemetry wires OpenTelemetry tracing for the notification service.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/config"
	"github.com/cybershield/notifier/pkg/version"
)

// TracerName is the instrumentation scope used by the service's spans.
const TracerName = "github.com/cybershield/notifier"

const defaultServiceName = "cybershield-notifier"

// Options configures the OpenTelemetry TracerProvider.
type Options struct {
	// Enabled controls whether tracing is active. When false, a no-op
	// TracerProvider is installed and the shutdown function is a no-op.
	Enabled bool

	// ServiceName is the service.name resource attribute.
	// Default: "cybershield-notifier"
	ServiceName string

	// ServiceVersion is the service.version resource attribute, normally
	// the ldflags-injected build version.
	ServiceVersion string

	// Exporter selects the trace exporter: "otlp", "stdout" (default), or "none".
	Exporter string

	// Endpoint is the OTLP collector endpoint (e.g. "otel-collector:4317").
	// Only read by the "otlp" exporter.
	Endpoint string

	// Insecure disables TLS for the OTLP gRPC connection.
	Insecure bool

	// SamplingRate is the probability of sampling a trace (0.0-1.0).
	// Values outside (0, 1] fall back to 1.0.
	SamplingRate float64

	// Logger receives setup diagnostics and OpenTelemetry's internal errors.
	Logger *zap.SugaredLogger
}

// OptionsFromConfig maps the environment configuration to tracer options.
func OptionsFromConfig(cfg config.Telemetry, log *zap.SugaredLogger) Options {
	return Options{
		Enabled:        cfg.Enabled,
		ServiceName:    defaultServiceName,
		ServiceVersion: version.Version,
		Exporter:       cfg.Exporter,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SamplingRate:   cfg.SamplingRate,
		Logger:         log,
	}
}

// ShutdownFunc gracefully shuts down the TracerProvider, flushing pending spans.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global TracerProvider and propagator and returns a shutdown function
// that must be called during graceful shutdown.
func Init(ctx context.Context, opts Options) (trace.TracerProvider, ShutdownFunc, error) {
	if !opts.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}

	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	otel.SetLogger(zapr.NewLogger(log.Desugar()))

	if opts.SamplingRate <= 0 || opts.SamplingRate > 1.0 {
		log.Warnw("OTel sampling rate out of range, using 1.0 (sample everything)", "provided", opts.SamplingRate)
		opts.SamplingRate = 1.0
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTel resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "stdout", "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
	case "otlp":
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP gRPC exporter: %w", err)
		}
	case "none":
		// spans are recorded but not exported
	default:
		return nil, nil, fmt.Errorf("unknown OTel exporter %q: supported values are otlp, stdout, none", opts.Exporter)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warnw("OpenTelemetry internal error", "error", err)
	}))

	log.Infow("OpenTelemetry tracing initialized",
		"serviceName", opts.ServiceName,
		"exporter", opts.Exporter,
		"samplingRate", opts.SamplingRate,
	)

	shutdown := func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}
	return tp, shutdown, nil
}
