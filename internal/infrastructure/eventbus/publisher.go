// Package eventbus 提供编码请求事件的发布实现。
//
// 默认经由 Outbox 持久化后由 Outbox Runner 异步投递；pubsub 模式直接发布到 Pub/Sub。
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// Mode 选择事件投递方式。
type Mode string

// 投递方式
const (
	ModeOutbox Mode = "outbox"
	ModePubSub Mode = "pubsub"
)

// ParseMode 解析投递方式，空值回落到 outbox。
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeOutbox:
		return ModeOutbox, nil
	case ModePubSub:
		return ModePubSub, nil
	default:
		return "", fmt.Errorf("eventbus: unknown publish mode %q", raw)
	}
}

// OutboxWriter 将事件写入 Outbox 表。
type OutboxWriter interface {
	EnqueueEvent(ctx context.Context, sess txmanager.Session, event *outboxevents.DomainEvent, attributes map[string]string) error
}

// ErrPublisherNotConfigured 表示所选投递方式缺少必要依赖。
var ErrPublisherNotConfigured = errors.New("eventbus: publisher not configured")

// Publisher 发布编码请求事件，满足 services.MediaEventPublisher。
type Publisher struct {
	mode      Mode
	outbox    OutboxWriter
	txManager txmanager.Manager
	pubsub    gcpubsub.Publisher
	log       *log.Helper
	metrics   *publishMetrics
}

// NewOutboxPublisher 构造写 Outbox 的发布器，每次发布在独立事务内提交。
func NewOutboxPublisher(writer OutboxWriter, tx txmanager.Manager, logger log.Logger) *Publisher {
	return &Publisher{
		mode:      ModeOutbox,
		outbox:    writer,
		txManager: tx,
		log:       log.NewHelper(logger),
		metrics:   newPublishMetrics(),
	}
}

// NewPubSubPublisher 构造直接发布到 Pub/Sub 的发布器。
func NewPubSubPublisher(publisher gcpubsub.Publisher, logger log.Logger) *Publisher {
	return &Publisher{
		mode:    ModePubSub,
		pubsub:  publisher,
		log:     log.NewHelper(logger),
		metrics: newPublishMetrics(),
	}
}

// Mode 返回当前投递方式。
func (p *Publisher) Mode() Mode {
	if p == nil {
		return ""
	}
	return p.mode
}

// Publish 投递事件。返回 nil 仅表示事件已被 Outbox 或 Pub/Sub 接收，不等待编码器确认。
func (p *Publisher) Publish(ctx context.Context, event *outboxevents.DomainEvent) error {
	if p == nil {
		return ErrPublisherNotConfigured
	}
	if event == nil {
		return fmt.Errorf("eventbus: nil event")
	}
	attrs := outboxevents.BuildAttributes(event, outboxevents.TraceIDFromContext(ctx))

	var err error
	switch p.mode {
	case ModeOutbox:
		err = p.enqueue(ctx, event, attrs)
	case ModePubSub:
		err = p.publishDirect(ctx, event, attrs)
	default:
		err = fmt.Errorf("%w: mode %q", ErrPublisherNotConfigured, p.mode)
	}
	p.metrics.record(ctx, p.mode, event.Kind.String(), err)
	if err != nil {
		p.log.WithContext(ctx).Errorw("msg", "publish event failed", "mode", p.mode, "event_id", event.EventID, "event_type", event.Kind.String(), "error", err)
		return err
	}
	p.log.WithContext(ctx).Debugf("event published: mode=%s event_id=%s aggregate_id=%s", p.mode, event.EventID, event.AggregateID)
	return nil
}

func (p *Publisher) enqueue(ctx context.Context, event *outboxevents.DomainEvent, attrs map[string]string) error {
	if p.outbox == nil || p.txManager == nil {
		return fmt.Errorf("%w: outbox writer or tx manager missing", ErrPublisherNotConfigured)
	}
	return p.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		return p.outbox.EnqueueEvent(txCtx, sess, event, attrs)
	})
}

func (p *Publisher) publishDirect(ctx context.Context, event *outboxevents.DomainEvent, attrs map[string]string) error {
	if p.pubsub == nil {
		return fmt.Errorf("%w: pubsub publisher missing", ErrPublisherNotConfigured)
	}
	data, err := outboxevents.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: encode event: %w", err)
	}
	msgID, err := p.pubsub.Publish(ctx, gcpubsub.Message{Data: data, Attributes: attrs})
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", event.EventID, err)
	}
	p.log.WithContext(ctx).Debugf("pubsub message accepted: message_id=%s event_id=%s", msgID, event.EventID)
	return nil
}
