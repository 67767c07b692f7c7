// Package telemetry exposes OpenTelemetry metrics through a Prometheus registry.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/appstore-dev/appstore"

// Metrics holds the instruments recorded by the API server and the probe engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests        metric.Int64Counter
	RequestDuration metric.Float64Histogram
	Probes          metric.Int64Counter
	ProbeDuration   metric.Float64Histogram
	ProbePasses     metric.Int64UpDownCounter
	RecordQueries   metric.Int64Counter

	registry *prometheus.Registry
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.Requests, err = meter.Int64Counter("appstore_http_requests_total",
		metric.WithDescription("Total number of API requests")); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram("appstore_http_request_duration_seconds",
		metric.WithDescription("API request latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.Probes, err = meter.Int64Counter("appstore_probes_total",
		metric.WithDescription("Deployment reachability probes by resulting status")); err != nil {
		return nil, err
	}
	if m.ProbeDuration, err = meter.Float64Histogram("appstore_probe_duration_seconds",
		metric.WithDescription("Deployment reachability probe latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.ProbePasses, err = meter.Int64UpDownCounter("appstore_probe_passes_in_flight",
		metric.WithDescription("Health-check passes currently running")); err != nil {
		return nil, err
	}
	if m.RecordQueries, err = meter.Int64Counter("appstore_record_queries_total",
		metric.WithDescription("Record store queries by outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// InitMetrics wires an OpenTelemetry meter provider to a fresh Prometheus
// registry and starts runtime instrumentation. The returned function shuts
// the provider down.
func InitMetrics(serviceVersion string) (func(context.Context) error, *Metrics, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	if err := runtime.Start(
		runtime.WithMeterProvider(provider),
		runtime.WithMinimumReadMemStatsInterval(15*time.Second),
	); err != nil {
		return nil, nil, fmt.Errorf("failed to start runtime metrics: %w", err)
	}

	meter := provider.Meter(meterName, metric.WithInstrumentationVersion(serviceVersion))
	m, err := NewMetrics(meter)
	if err != nil {
		return nil, nil, err
	}
	m.registry = reg
	return provider.Shutdown, m, nil
}

// Handler serves the Prometheus registry backing m.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProbe records one classified probe.
func (m *Metrics) RecordProbe(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Probes.Add(ctx, 1, attrs)
	m.ProbeDuration.Record(ctx, d.Seconds(), attrs)
}

// PassStarted marks a health-check pass as running. Call the returned func when it ends.
func (m *Metrics) PassStarted(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.ProbePasses.Add(ctx, 1)
	return func() { m.ProbePasses.Add(context.WithoutCancel(ctx), -1) }
}

// RecordQuery records one record store query.
func (m *Metrics) RecordQuery(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RecordQueries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// Middleware records request count and latency per operation.
func (m *Metrics) Middleware(ctx huma.Context, next func(huma.Context)) {
	if m == nil {
		next(ctx)
		return
	}
	start := time.Now()
	next(ctx)

	path := ctx.URL().Path
	if op := ctx.Operation(); op != nil {
		path = op.Path
	}
	attrs := metric.WithAttributes(
		attribute.String("method", ctx.Method()),
		attribute.String("path", path),
		attribute.String("status", strconv.Itoa(ctx.Status())),
	)
	m.Requests.Add(ctx.Context(), 1, attrs)
	m.RequestDuration.Record(ctx.Context(), time.Since(start).Seconds(), attrs)
}
