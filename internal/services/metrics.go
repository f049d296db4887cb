package services

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var (
	mediaMetricsMu      sync.Mutex
	mediaMetricsEnabled bool
	uploadCounter       metric.Int64Counter
	uploadBytes         metric.Int64Histogram
	transitionCounter   metric.Int64Counter
)

const (
	uploadMetricName     = "media_upload_total"
	uploadBytesName      = "media_upload_bytes"
	transitionMetricName = "media_transition_total"
)

var (
	attrMediaType = attribute.Key("media_type")
	attrOutcome   = attribute.Key("outcome")
	attrStatus    = attribute.Key("status")
)

type mediaMetrics struct{}

func newMediaMetrics() *mediaMetrics {
	mediaMetricsMu.Lock()
	defer mediaMetricsMu.Unlock()
	if !mediaMetricsEnabled {
		initMediaMetricsLocked()
	}
	return &mediaMetrics{}
}

func initMediaMetricsLocked() {
	provider := otel.GetMeterProvider()
	if provider == nil {
		provider = noopmetric.NewMeterProvider()
	}
	meter := provider.Meter("lingo-services-media.services")

	var err error
	uploadCounter, err = meter.Int64Counter(uploadMetricName,
		metric.WithDescription("Number of media uploads by media type and outcome"))
	if err != nil {
		return
	}
	uploadBytes, err = meter.Int64Histogram(uploadBytesName,
		metric.WithDescription("Size of uploaded media content"),
		metric.WithUnit("By"))
	if err != nil {
		return
	}
	transitionCounter, err = meter.Int64Counter(transitionMetricName,
		metric.WithDescription("Number of encoding result notifications applied to media slots"))
	if err != nil {
		return
	}
	mediaMetricsEnabled = true
}

func (m *mediaMetrics) recordUpload(ctx context.Context, mediaType string, size int, outcome string) {
	if m == nil || !mediaMetricsEnabled {
		return
	}
	attrs := metric.WithAttributes(attrMediaType.String(mediaType), attrOutcome.String(outcome))
	uploadCounter.Add(ctx, 1, attrs)
	if outcome == "success" {
		uploadBytes.Record(ctx, int64(size), metric.WithAttributes(attrMediaType.String(mediaType)))
	}
}

func (m *mediaMetrics) recordTransition(ctx context.Context, mediaType, status string, outcome ProcessOutcome) {
	if m == nil || !mediaMetricsEnabled {
		return
	}
	transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attrMediaType.String(mediaType),
		attrStatus.String(status),
		attrOutcome.String(string(outcome)),
	))
}
