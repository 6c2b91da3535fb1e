package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/poolstream/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PoolMetrics holds the instruments a worker pool reports through.
type PoolMetrics struct {
	submitted metric.Int64Counter
	inline    metric.Int64Counter
	panics    metric.Int64Counter
	duration  metric.Float64Histogram
	busy      metric.Int64UpDownCounter
}

// NewPoolMetrics creates pool instruments on the given meter.
func NewPoolMetrics(meter metric.Meter) (*PoolMetrics, error) {
	submitted, err := meter.Int64Counter("workpool.tasks.submitted",
		metric.WithDescription("Tasks handed to a pool worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating workpool.tasks.submitted counter: %w", err)
	}

	inline, err := meter.Int64Counter("workpool.tasks.inline",
		metric.WithDescription("Tasks run on the submitting goroutine because it already belonged to the pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating workpool.tasks.inline counter: %w", err)
	}

	panics, err := meter.Int64Counter("workpool.tasks.panics",
		metric.WithDescription("Tasks that panicked on a worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating workpool.tasks.panics counter: %w", err)
	}

	duration, err := meter.Float64Histogram("workpool.task.duration",
		metric.WithDescription("Time a worker spent running one task"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating workpool.task.duration histogram: %w", err)
	}

	busy, err := meter.Int64UpDownCounter("workpool.workers.busy",
		metric.WithDescription("Workers currently running a task"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating workpool.workers.busy gauge: %w", err)
	}

	return &PoolMetrics{
		submitted: submitted,
		inline:    inline,
		panics:    panics,
		duration:  duration,
		busy:      busy,
	}, nil
}

// A nil *PoolMetrics is valid and records nothing.

// RecordSubmitted counts a task handed to a worker.
func (m *PoolMetrics) RecordSubmitted(ctx context.Context, pool string) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("pool", pool)))
}

// RecordInline counts a task run on the caller's goroutine.
func (m *PoolMetrics) RecordInline(ctx context.Context, pool string) {
	if m == nil {
		return
	}
	m.inline.Add(ctx, 1, metric.WithAttributes(attribute.String("pool", pool)))
}

// RecordTaskStart marks a worker busy.
func (m *PoolMetrics) RecordTaskStart(ctx context.Context, pool string) {
	if m == nil {
		return
	}
	m.busy.Add(ctx, 1, metric.WithAttributes(attribute.String("pool", pool)))
}

// RecordTaskEnd marks a worker idle again and records how long the task ran.
func (m *PoolMetrics) RecordTaskEnd(ctx context.Context, pool string, d time.Duration, panicked bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pool", pool))
	m.busy.Add(ctx, -1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
	if panicked {
		m.panics.Add(ctx, 1, attrs)
	}
}
