// Package observability provides logging, tracing and metrics for EconFlux.
//
// Spans follow the W3C Trace Context so a runtime invocation can be joined
// to the caller's trace; metrics are exported in Prometheus format.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// InstrumentationName names the tracer and meter used across the module.
const InstrumentationName = "econflux"

// TracingOptions selects the span exporters.
type TracingOptions struct {
	ServiceName string

	// OTLPEndpoint enables the OTLP gRPC exporter (host:port).
	OTLPEndpoint string

	// ConsoleExport writes spans to stdout.
	ConsoleExport bool
}

// InitTracing installs a global tracer provider and the W3C propagators.
// The returned provider must be shut down by the caller.
func InitTracing(ctx context.Context, opts TracingOptions) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if opts.OTLPEndpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	if opts.ConsoleExport {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// GetTracer returns a tracer from the current global tracer provider.
func GetTracer() trace.Tracer {
	// Resolved on each call so tests can swap the global provider.
	return otel.Tracer(InstrumentationName)
}

// TracingMiddleware wraps an agent with a span per request.
type TracingMiddleware struct {
	agent    econflux.Agent
	spanName string
}

var _ econflux.Agent = (*TracingMiddleware)(nil)

// NewTracingMiddleware creates a new tracing middleware. An empty spanName
// defaults to "agent.<name>.process".
func NewTracingMiddleware(agent econflux.Agent, spanName string) *TracingMiddleware {
	if spanName == "" {
		spanName = fmt.Sprintf("agent.%s.process", agent.Name())
	}
	return &TracingMiddleware{agent: agent, spanName: spanName}
}

// Name returns the agent name.
func (t *TracingMiddleware) Name() string {
	return t.agent.Name()
}

// Capabilities returns the agent capabilities.
func (t *TracingMiddleware) Capabilities() []string {
	return t.agent.Capabilities()
}

// Process processes a message inside a span.
func (t *TracingMiddleware) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	ctx, span := GetTracer().Start(ctx, t.spanName, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.name", t.agent.Name()),
		attribute.String("message.role", message.Role),
		attribute.Int("message.content_length", len(message.Content)),
	)
	if sessionID := message.SessionID(); sessionID != "" {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}

	response, err := t.agent.Process(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return response, nil
}
