package outboxevents

import (
	"fmt"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/google/uuid"
)

// NewAudioVideoMediaUploadedEvent 构建编码请求事件。
func NewAudioVideoMediaUploadedEvent(videoID uuid.UUID, mediaType po.MediaType, rawLocation string, eventID uuid.UUID, occurredAt time.Time) (*DomainEvent, error) {
	if eventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if videoID == uuid.Nil {
		return nil, fmt.Errorf("%w: video id is required", ErrInvalidPayload)
	}
	if !mediaType.IsAudioVideo() {
		return nil, fmt.Errorf("%w: media type %q is not audio/video", ErrInvalidPayload, mediaType)
	}
	if strings.TrimSpace(rawLocation) == "" {
		return nil, fmt.Errorf("%w: raw location is required", ErrInvalidPayload)
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()

	return &DomainEvent{
		EventID:       eventID,
		Kind:          KindAudioVideoMediaUploaded,
		AggregateID:   videoID,
		AggregateType: AggregateTypeVideo,
		Version:       VersionFromTime(occurredAt),
		OccurredAt:    occurredAt,
		Payload: &AudioVideoMediaUploaded{
			VideoID:     videoID,
			MediaType:   mediaType,
			RawLocation: rawLocation,
		},
	}, nil
}

// ResourceID 生成编码器回传时使用的资源标识 "<uuid>.<MEDIA_TYPE>"。
func ResourceID(videoID uuid.UUID, mediaType po.MediaType) string {
	return videoID.String() + "." + string(mediaType)
}
