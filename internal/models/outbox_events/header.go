package outboxevents

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// BuildAttributes 构造 Pub/Sub message attributes，编码器可据此过滤订阅。
func BuildAttributes(event *DomainEvent, traceID string) map[string]string {
	attrs := map[string]string{
		"event_id":       event.EventID.String(),
		"event_type":     event.Kind.String(),
		"aggregate_id":   event.AggregateID.String(),
		"aggregate_type": event.AggregateType,
		"version":        strconv.FormatInt(event.Version, 10),
		"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339Nano),
		"schema_version": SchemaVersionV1,
	}
	if payload, ok := event.Payload.(*AudioVideoMediaUploaded); ok {
		attrs["media_type"] = string(payload.MediaType)
	}
	if traceID != "" {
		attrs["trace_id"] = traceID
	}
	return attrs
}

// TraceIDFromContext 提取 OTel Trace ID，若不存在返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// VersionFromTime 以 UTC 微秒时间作为事件版本号。
func VersionFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}
