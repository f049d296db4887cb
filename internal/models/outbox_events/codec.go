package outboxevents

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent 是编码请求在消息总线上的 JSON 结构。
type wireEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	ResourceID  string    `json:"resource_id"`
	MediaType   string    `json:"media_type"`
	FilePath    string    `json:"file_path"`
	OccurredAt  time.Time `json:"occurred_at"`
	Version     int64     `json:"version"`
}

// Marshal 将领域事件编码为消息载荷。
func Marshal(event *DomainEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidPayload)
	}
	switch payload := event.Payload.(type) {
	case *AudioVideoMediaUploaded:
		return json.Marshal(wireEvent{
			EventID:     event.EventID.String(),
			EventType:   event.Kind.String(),
			AggregateID: event.AggregateID.String(),
			ResourceID:  ResourceID(payload.VideoID, payload.MediaType),
			MediaType:   string(payload.MediaType),
			FilePath:    payload.RawLocation,
			OccurredAt:  event.OccurredAt.UTC(),
			Version:     event.Version,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventKind, event.Kind)
	}
}
