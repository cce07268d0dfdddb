package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jrsteele09/go-schooltracker-client/internal/config"
)

// setupTracing installs an OTLP-exporting tracer provider when an endpoint is
// configured. The returned function flushes pending spans.
func setupTracing(ctx context.Context, cfg config.TelemetryConfig) (shutdown func(), err error) {
	if cfg.GetOTLPEndpoint() == "" {
		return func() {}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.GetServiceName())))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.GetOTLPProtocol() {
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.GetOTLPEndpoint())}
		if cfg.GetOTLPInsecure() {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.GetOTLPEndpoint())}
		if cfg.GetOTLPInsecure() {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("otel exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Debug().Str("endpoint", cfg.GetOTLPEndpoint()).Str("protocol", cfg.GetOTLPProtocol()).Msg("trace export enabled")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}, nil
}
