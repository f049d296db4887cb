package services

import (
	"context"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
)

// VideoRepository 定义视频聚合的持久化能力。
// GetForUpdate 与 Save 在同一事务会话内调用，保证单聚合读改写的原子性。
type VideoRepository interface {
	GetByID(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (*po.Video, error)
	GetForUpdate(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (*po.Video, error)
	Save(ctx context.Context, sess txmanager.Session, video *po.Video) error
	List(ctx context.Context, sess txmanager.Session) ([]*po.Video, error)
	Delete(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) error
}

// ReferenceChecker 校验视频引用的目录实体是否存在。
type ReferenceChecker interface {
	MissingIDs(ctx context.Context, sess txmanager.Session, kind po.ReferenceKind, ids []uuid.UUID) ([]uuid.UUID, error)
}

// BlobStore 保存原始媒体内容并返回不透明的位置句柄。
type BlobStore interface {
	Store(ctx context.Context, pathHint string, content []byte, contentType string) (string, error)
}

// MediaEventPublisher 发布编码请求事件，不等待下游确认。
type MediaEventPublisher interface {
	Publish(ctx context.Context, event *outboxevents.DomainEvent) error
}

var (
	_ VideoRepository  = (*repositories.VideoRepository)(nil)
	_ ReferenceChecker = (*repositories.ReferenceRepository)(nil)
)
