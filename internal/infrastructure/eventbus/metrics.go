package eventbus

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lingo-services-media.eventbus"

type publishMetrics struct {
	publishCounter metric.Int64Counter
}

func newPublishMetrics() *publishMetrics {
	m := otel.GetMeterProvider().Meter(meterName)
	counter, _ := m.Int64Counter("media_event_publish_total",
		metric.WithDescription("Number of encode request events handed to the outbox or Pub/Sub"))
	return &publishMetrics{publishCounter: counter}
}

func (m *publishMetrics) record(ctx context.Context, mode Mode, eventType string, err error) {
	if m == nil || m.publishCounter == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.publishCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	))
}
