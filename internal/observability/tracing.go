package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for internal component operations
func StartServiceSpan(ctx context.Context, component, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", component, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", component),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// BridgeMetrics holds metrics for the bridge's domain operations:
// thumbnail resolution, exports, and library reloads.
type BridgeMetrics struct {
	thumbnailCount    metric.Int64Counter
	thumbnailDuration metric.Float64Histogram
	exportCount       metric.Int64Counter
	reloadCount       metric.Int64Counter
	libraryAssets     metric.Int64Gauge
}

// NewBridgeMetrics creates the domain metric instruments
func NewBridgeMetrics() (*BridgeMetrics, error) {
	meter := otel.Meter(instrumentationName)

	thumbnailCount, err := meter.Int64Counter(
		"bridge.thumbnail.resolutions",
		metric.WithDescription("Total number of thumbnail resolutions"),
		metric.WithUnit("{resolutions}"),
	)
	if err != nil {
		return nil, err
	}

	thumbnailDuration, err := meter.Float64Histogram(
		"bridge.thumbnail.duration",
		metric.WithDescription("Thumbnail resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	exportCount, err := meter.Int64Counter(
		"bridge.export.count",
		metric.WithDescription("Total number of asset exports"),
		metric.WithUnit("{exports}"),
	)
	if err != nil {
		return nil, err
	}

	reloadCount, err := meter.Int64Counter(
		"bridge.library.reloads",
		metric.WithDescription("Total number of library snapshot reloads"),
		metric.WithUnit("{reloads}"),
	)
	if err != nil {
		return nil, err
	}

	libraryAssets, err := meter.Int64Gauge(
		"bridge.library.assets",
		metric.WithDescription("Number of assets in the current library snapshot"),
		metric.WithUnit("{assets}"),
	)
	if err != nil {
		return nil, err
	}

	return &BridgeMetrics{
		thumbnailCount:    thumbnailCount,
		thumbnailDuration: thumbnailDuration,
		exportCount:       exportCount,
		reloadCount:       reloadCount,
		libraryAssets:     libraryAssets,
	}, nil
}

// RecordThumbnail records one thumbnail resolution outcome
func (m *BridgeMetrics) RecordThumbnail(ctx context.Context, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.thumbnailCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.thumbnailDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordExport records one asset export outcome
func (m *BridgeMetrics) RecordExport(ctx context.Context, mediaType string, success bool) {
	m.exportCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("media_type", mediaType),
		attribute.Bool("success", success),
	))
}

// RecordReload records a completed library reload
func (m *BridgeMetrics) RecordReload(ctx context.Context, assetCount int) {
	m.reloadCount.Add(ctx, 1)
	m.libraryAssets.Record(ctx, int64(assetCount))
}
