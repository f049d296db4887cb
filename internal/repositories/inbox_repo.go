package repositories

import (
	"context"
	"time"

	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InboxMessage 描述写入 media.inbox_events 的编码结果通知。
type InboxMessage = store.InboxMessage

// InboxEvent 表示已记录的编码结果通知。
type InboxEvent = store.InboxEvent

// InboxRepository 记录已消费的编码结果，使重复投递的通知只被应用一次。
type InboxRepository struct {
	delegate *store.Repository
}

// NewInboxRepository 构建 Inbox 仓储，表位于 cfg.Schema 下。
func NewInboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *InboxRepository {
	storeRepo, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init inbox repository failed", "error", err)
		return &InboxRepository{delegate: store.NewRepository(db, logger)}
	}
	return &InboxRepository{delegate: storeRepo}
}

// Insert 在事务内登记一条通知。
func (r *InboxRepository) Insert(ctx context.Context, sess txmanager.Session, msg InboxMessage) error {
	return r.delegate.RecordInboxEvent(ctx, sess, msg)
}

// MarkProcessed 标记通知已应用到槽位。
func (r *InboxRepository) MarkProcessed(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, processedAt time.Time) error {
	return r.delegate.MarkInboxProcessed(ctx, sess, eventID, processedAt)
}

// RecordError 记录最近一次处理失败的原因。
func (r *InboxRepository) RecordError(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, lastErr string) error {
	return r.delegate.RecordInboxError(ctx, sess, eventID, lastErr)
}

// Shared 返回底层通用实现，供 inbox runner 使用。
func (r *InboxRepository) Shared() *store.Repository {
	return r.delegate
}
