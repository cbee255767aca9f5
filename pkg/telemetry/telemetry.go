// Package telemetry configures OpenTelemetry tracing for an audit run.
//
// Tracing is off unless an OTLP endpoint is configured. When off, the
// global no-op tracer provider stays in place and spans cost nothing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/duration"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "github.com/policyaudit/policyaudit"

// Options configures tracing.
type Options struct {
	// Endpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// An http:// or https:// prefix selects plaintext or TLS and
	// overrides Insecure. Empty disables tracing.
	Endpoint string

	// ServiceName defaults to defaults.ToolName.
	ServiceName string

	// Insecure uses a plaintext gRPC connection.
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string

	// Exporter replaces the OTLP exporter. Used by tests.
	Exporter sdktrace.SpanExporter

	// ShutdownTimeout bounds the final flush (default duration.ContextShort).
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// Provider owns the tracer provider for the lifetime of a run.
type Provider struct {
	tp       *sdktrace.TracerProvider
	timeout  time.Duration
	logger   *slog.Logger
	endpoint string
}

// Setup installs a global tracer provider. With no endpoint and no
// exporter it returns a disabled Provider whose Shutdown is a no-op.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = duration.ContextShort
	}
	p := &Provider{timeout: opts.ShutdownTimeout, logger: logger, endpoint: opts.Endpoint}

	exporter := opts.Exporter
	if exporter == nil {
		if opts.Endpoint == "" {
			return p, nil
		}
		var err error
		exporter, err = newOTLPExporter(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = defaults.ToolName
	}
	// Built without resource.Default() to avoid schema URL conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "audit"),
	)

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(p.tp)
	logger.Debug("tracing enabled", "endpoint", opts.Endpoint, "service", serviceName)
	return p, nil
}

// splitEndpoint strips a URL scheme from endpoint and reports whether the
// connection is plaintext.
func splitEndpoint(endpoint string, insecure bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), false
	}
	return endpoint, insecure
}

func newOTLPExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	endpoint, plaintext := splitEndpoint(opts.Endpoint, opts.Insecure)
	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(strings.TrimSuffix(endpoint, "/")),
	}
	if plaintext {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(ctx, duration.ContextShort)
	defer cancel()
	return otlptracegrpc.New(ctx, exporterOpts...)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p != nil && p.tp != nil }

// Tracer returns a tracer from the installed provider.
func (p *Provider) Tracer() trace.Tracer {
	if p.Enabled() {
		return p.tp.Tracer(TracerName)
	}
	return otel.Tracer(TracerName)
}

// Shutdown flushes pending spans. Export failures are logged, not
// returned, so a missing collector never fails an audit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.tp.Shutdown(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("trace export failed", "endpoint", p.endpoint, "error", err)
	}
	return nil
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
