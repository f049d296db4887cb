// Package outboxevents 定义媒体服务对外发布的集成事件及其线上编码。
package outboxevents

import (
	"errors"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/google/uuid"
)

// Kind 标识集成事件类型。
type Kind int

// 集成事件类型常量。
const (
	// KindUnknown 表示未识别的事件类型。
	KindUnknown Kind = iota
	// KindAudioVideoMediaUploaded 表示原始音视频已落盘、可供编码器拉取。
	KindAudioVideoMediaUploaded
)

func (k Kind) String() string {
	switch k {
	case KindAudioVideoMediaUploaded:
		return "media.audio_video.uploaded"
	default:
		return "media.event.unknown"
	}
}

// DomainEvent 表示领域层生成的标准事件。
type DomainEvent struct {
	EventID       uuid.UUID
	Kind          Kind
	AggregateID   uuid.UUID
	AggregateType string
	Version       int64
	OccurredAt    time.Time
	Payload       any
}

// AudioVideoMediaUploaded 描述编码请求载荷。
type AudioVideoMediaUploaded struct {
	VideoID     uuid.UUID
	MediaType   po.MediaType
	RawLocation string
}

const (
	// AggregateTypeVideo 标识视频聚合类型。
	AggregateTypeVideo = "video"
	// SchemaVersionV1 描述事件载荷的当前 schema 版本。
	SchemaVersionV1 = "v1"
)

var (
	// ErrInvalidEventID 表示未提供合法的事件 ID。
	ErrInvalidEventID = errors.New("event builder: event id is required")
	// ErrUnknownEventKind 表示未识别的事件类型。
	ErrUnknownEventKind = errors.New("event builder: unknown event kind")
	// ErrInvalidPayload 表示事件载荷缺少必要字段。
	ErrInvalidPayload = errors.New("event builder: invalid payload")
)
