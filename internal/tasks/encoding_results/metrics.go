package encodingresults

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lingo-services-media.encoding_results"

const (
	resultRetry        = "retry"
	resultDeadLettered = "dead_lettered"
	resultDropped      = "dropped"
)

type metrics struct {
	resultCounter     metric.Int64Counter
	durationHistogram metric.Int64Histogram
}

func newMetrics() *metrics {
	m := otel.GetMeterProvider().Meter(meterName)
	resultCounter, _ := m.Int64Counter("media_encoding_result_total",
		metric.WithDescription("Encoding result notifications by handling result"))
	durationHistogram, _ := m.Int64Histogram("media_encoding_result_handle_ms",
		metric.WithDescription("Time spent handling one encoding result notification"),
		metric.WithUnit("ms"))
	return &metrics{resultCounter: resultCounter, durationHistogram: durationHistogram}
}

func (m *metrics) record(ctx context.Context, result, mediaType string, elapsed time.Duration) {
	if m == nil || m.resultCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("result", result)}
	if mediaType != "" {
		attrs = append(attrs, attribute.String("media_type", mediaType))
	}
	m.resultCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.durationHistogram != nil && elapsed >= 0 {
		m.durationHistogram.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(attribute.String("result", result)))
	}
}
