package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// InitMetrics installs a global meter provider that exports to registerer
// in Prometheus format. A nil registerer uses the Prometheus default.
func InitMetrics(ctx context.Context, serviceName string, registerer prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporterOpts []otelprom.Option
	if registerer != nil {
		exporterOpts = append(exporterOpts, otelprom.WithRegisterer(registerer))
	}
	exporter, err := otelprom.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}

// GetMeter returns a meter from the current global meter provider.
func GetMeter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// MetricsMiddleware wraps an agent with request metrics.
type MetricsMiddleware struct {
	agent            econflux.Agent
	requestCounter   metric.Int64Counter
	errorCounter     metric.Int64Counter
	latencyHistogram metric.Float64Histogram
	messageSizeHist  metric.Int64Histogram
}

var _ econflux.Agent = (*MetricsMiddleware)(nil)

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(agent econflux.Agent) (*MetricsMiddleware, error) {
	meter := GetMeter()

	requestCounter, err := meter.Int64Counter(
		"econflux.agent.requests",
		metric.WithDescription("Total number of agent requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"econflux.agent.errors",
		metric.WithDescription("Total number of agent errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	latencyHistogram, err := meter.Float64Histogram(
		"econflux.agent.latency",
		metric.WithDescription("Agent processing latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	messageSizeHist, err := meter.Int64Histogram(
		"econflux.agent.message_size",
		metric.WithDescription("Prompt content size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message size histogram: %w", err)
	}

	return &MetricsMiddleware{
		agent:            agent,
		requestCounter:   requestCounter,
		errorCounter:     errorCounter,
		latencyHistogram: latencyHistogram,
		messageSizeHist:  messageSizeHist,
	}, nil
}

// Name returns the agent name.
func (m *MetricsMiddleware) Name() string {
	return m.agent.Name()
}

// Capabilities returns the agent capabilities.
func (m *MetricsMiddleware) Capabilities() []string {
	return m.agent.Capabilities()
}

// Process processes a message and records count, latency and size.
func (m *MetricsMiddleware) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	start := time.Now()
	attrs := []attribute.KeyValue{attribute.String("agent.name", m.agent.Name())}

	m.messageSizeHist.Record(ctx, int64(len(message.Content)), metric.WithAttributes(attrs...))

	response, err := m.agent.Process(ctx, message)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		errorAttrs := append(attrs,
			attribute.String("status", "error"),
			attribute.String("error.type", ErrorType(err)),
		)
		m.requestCounter.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
		m.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(errorAttrs...))
		return nil, err
	}

	successAttrs := append(attrs, attribute.String("status", "success"))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(successAttrs...))
	m.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(successAttrs...))
	return response, nil
}

// ToolMetrics counts tool executions by tool and outcome.
type ToolMetrics struct {
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// NewToolMetrics creates the tool instruments on the global meter.
func NewToolMetrics() (*ToolMetrics, error) {
	meter := GetMeter()

	calls, err := meter.Int64Counter(
		"econflux.tool.calls",
		metric.WithDescription("Total number of tool executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"econflux.tool.latency",
		metric.WithDescription("Tool execution latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool latency histogram: %w", err)
	}
	return &ToolMetrics{calls: calls, latency: latency}, nil
}

// Record adds one execution of tool. A nil receiver is a no-op.
func (m *ToolMetrics) Record(ctx context.Context, tool string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("tool.name", tool),
		attribute.String("status", status),
	)
	m.calls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

// ErrorType classifies err for metric attributes.
func ErrorType(err error) string {
	var (
		validation *econflux.ValidationError
		cfg        *econflux.ConfigurationError
		upstream   *econflux.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &cfg):
		return "configuration"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return fmt.Sprintf("%T", err)
	}
}
