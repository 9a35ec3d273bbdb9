package objstore

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/arllen133/objstore"
	meterName  = "github.com/arllen133/objstore"
)

// Metrics holds the OpenTelemetry instruments of one component (queries or hook chains).
type Metrics struct {
	Count    metric.Int64Counter
	Duration metric.Float64Histogram
	Errors   metric.Int64Counter
}

// ObservabilityConfig holds logging, tracing, and metrics configuration
// shared by Session and Engine.
type ObservabilityConfig struct {
	Logger        *slog.Logger
	Tracer        trace.Tracer
	Meter         metric.Meter
	SlowThreshold time.Duration
	Verbose       bool // Log every query / hook chain at debug level
}

func defaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		SlowThreshold: 200 * time.Millisecond,
	}
}

// Option configures the observability of a Session or an Engine.
type Option func(*ObservabilityConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ObservabilityConfig) {
		c.Logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *ObservabilityConfig) {
		c.Tracer = tracer
	}
}

// WithDefaultTracer uses the global OpenTelemetry tracer.
func WithDefaultTracer() Option {
	return func(c *ObservabilityConfig) {
		c.Tracer = otel.Tracer(tracerName)
	}
}

// WithMeter sets the OpenTelemetry meter for metrics.
func WithMeter(meter metric.Meter) Option {
	return func(c *ObservabilityConfig) {
		c.Meter = meter
	}
}

// WithDefaultMeter uses the global OpenTelemetry meter.
func WithDefaultMeter() Option {
	return func(c *ObservabilityConfig) {
		c.Meter = otel.Meter(meterName)
	}
}

// WithSlowThreshold sets the duration above which a query or hook chain is logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *ObservabilityConfig) {
		c.SlowThreshold = d
	}
}

// WithVerboseLogging logs every query or hook chain at debug level.
func WithVerboseLogging(enabled bool) Option {
	return func(c *ObservabilityConfig) {
		c.Verbose = enabled
	}
}

// observer is the runtime side of an ObservabilityConfig for one component.
type observer struct {
	cfg       ObservabilityConfig
	component string // "query" or "hook"
	metrics   *Metrics
}

func newObserver(component string, opts []Option) *observer {
	cfg := defaultObservabilityConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	o := &observer{cfg: cfg, component: component}
	if cfg.Meter != nil {
		o.metrics = initMetrics(cfg.Meter, component)
	}
	return o
}

// initMetrics creates the instruments objstore.<component>.{count,duration,errors}.
func initMetrics(meter metric.Meter, component string) *Metrics {
	prefix := "objstore." + component

	count, _ := meter.Int64Counter(prefix+".count",
		metric.WithDescription("Total number of "+component+" executions"),
		metric.WithUnit("{"+component+"}"),
	)

	duration, _ := meter.Float64Histogram(prefix+".duration",
		metric.WithDescription("Execution duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	errs, _ := meter.Int64Counter(prefix+".errors",
		metric.WithDescription("Total number of failed "+component+" executions"),
		metric.WithUnit("{error}"),
	)

	return &Metrics{
		Count:    count,
		Duration: duration,
		Errors:   errs,
	}
}

// spanWrapper wraps a trace.Span to handle nil spans gracefully
type spanWrapper struct {
	span trace.Span
}

func (w spanWrapper) End() {
	if w.span != nil {
		w.span.End()
	}
}

func (w spanWrapper) RecordError(err error) {
	if w.span != nil {
		w.span.RecordError(err)
	}
}

func (w spanWrapper) SetStatus(code codes.Code, description string) {
	if w.span != nil {
		w.span.SetStatus(code, description)
	}
}

func (w spanWrapper) SetAttributes(kv ...attribute.KeyValue) {
	if w.span != nil {
		w.span.SetAttributes(kv...)
	}
}

// fail marks the span as failed.
func (w spanWrapper) fail(err error) {
	w.RecordError(err)
	w.SetStatus(codes.Error, err.Error())
}

func (o *observer) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, spanWrapper) {
	if o.cfg.Tracer == nil {
		return ctx, spanWrapper{nil}
	}
	ctx, span := o.cfg.Tracer.Start(ctx, name, opts...)
	return ctx, spanWrapper{span}
}

func (o *observer) record(ctx context.Context, duration time.Duration, err error, kv ...attribute.KeyValue) {
	if o.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(kv...)
	o.metrics.Count.Add(ctx, 1, attrs)
	o.metrics.Duration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		o.metrics.Errors.Add(ctx, 1, attrs)
	}
}

// log writes one record for a finished execution: failures at error level, slow
// executions at warn level, everything else at debug level when verbose.
func (o *observer) log(ctx context.Context, msg string, duration time.Duration, err error, attrs ...slog.Attr) {
	if o.cfg.Logger == nil {
		return
	}

	attrs = append(attrs, slog.Duration("duration", duration))

	if err != nil {
		o.cfg.Logger.LogAttrs(ctx, slog.LevelError, o.component+" failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}

	if duration > o.cfg.SlowThreshold {
		o.cfg.Logger.LogAttrs(ctx, slog.LevelWarn, "slow "+o.component, attrs...)
		return
	}

	if o.cfg.Verbose {
		o.cfg.Logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
	}
}
