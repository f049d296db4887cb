package repositories

import (
	"context"
	"fmt"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"

	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage 描述需要写入 media.outbox_events 的事件数据。
type OutboxMessage = store.Message

// OutboxRepository 封装 lingo-utils 的 Outbox 存储，负责编码请求的持久化投递。
type OutboxRepository struct {
	delegate *store.Repository
}

// NewOutboxRepository 构建 Outbox 仓储。
func NewOutboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *OutboxRepository {
	storeRepo, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init outbox repository failed", "error", err)
		return &OutboxRepository{delegate: store.NewRepository(db, logger)}
	}
	return &OutboxRepository{delegate: storeRepo}
}

// Enqueue 在事务内插入 Outbox 事件。
func (r *OutboxRepository) Enqueue(ctx context.Context, sess txmanager.Session, msg OutboxMessage) error {
	return r.delegate.Enqueue(ctx, sess, msg)
}

// EnqueueEvent 编码领域事件并写入 Outbox，attributes 作为消息头随事件发布。
func (r *OutboxRepository) EnqueueEvent(ctx context.Context, sess txmanager.Session, event *outboxevents.DomainEvent, attributes map[string]string) error {
	payload, err := outboxevents.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode outbox event: %w", err)
	}
	return r.Enqueue(ctx, sess, OutboxMessage{
		EventID:       event.EventID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Kind.String(),
		Payload:       payload,
		Headers:       attributes,
		AvailableAt:   event.OccurredAt,
	})
}

// CountPending 返回当前未发布的 Outbox 事件数量。
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	return r.delegate.CountPending(ctx)
}

// Shared 返回底层通用实现，供 Outbox Runner 使用。
func (r *OutboxRepository) Shared() *store.Repository {
	return r.delegate
}
