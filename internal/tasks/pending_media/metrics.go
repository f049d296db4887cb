package pendingmedia

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lingo-services-media.pending_media"

type metrics struct {
	republishCounter metric.Int64Counter
}

func newMetrics() *metrics {
	m := otel.GetMeterProvider().Meter(meterName)
	counter, _ := m.Int64Counter("media_pending_republish_total",
		metric.WithDescription("Encode requests republished for slots stuck in PENDING"))
	return &metrics{republishCounter: counter}
}

func (m *metrics) record(ctx context.Context, result string) {
	if m == nil || m.republishCounter == nil {
		return
	}
	m.republishCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
