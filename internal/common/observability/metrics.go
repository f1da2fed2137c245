// Package observability records search engine operation metrics through the
// OpenTelemetry metric API, exported in Prometheus format.
package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/common/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	opCounter     otelmetric.Int64Counter
	opDuration    otelmetric.Float64Histogram
}

// New registers the exporter with reg. A failed exporter yields an
// Observability whose recording methods are no-ops.
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{
			"error": err,
		})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	opCounter, _ := meter.Int64Counter(
		"engine.operations",
		otelmetric.WithDescription("Number of search engine operations"),
	)

	opDuration, _ := meter.Float64Histogram(
		"engine.operation.duration",
		otelmetric.WithDescription("Search engine operation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		opCounter:     opCounter,
		opDuration:    opDuration,
	}
}

// Track starts timing operation and returns the func that records its outcome.
//
//	done := obs.Track(ctx, "summary")
//	defer func() { done(err) }()
func (o *Observability) Track(ctx context.Context, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		status, code := StatusSuccess, ""
		if err != nil {
			status, code = StatusError, string(apperrors.Normalize(err).Code)
		}
		o.RecordOperation(ctx, operation, status, code)
		o.RecordOperationDuration(ctx, operation, time.Since(start), status)
	}
}

func (o *Observability) RecordOperation(ctx context.Context, operation, status, errorCode string) {
	if o == nil || o.opCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
	if errorCode != "" {
		attrs = append(attrs, attribute.String("error_code", errorCode))
	}
	o.opCounter.Add(ctx, 1, otelmetric.WithAttributes(attrs...))
}

func (o *Observability) RecordOperationDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	if o == nil || o.opDuration == nil {
		return
	}
	o.opDuration.Record(ctx, float64(duration.Microseconds())/1000, otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
