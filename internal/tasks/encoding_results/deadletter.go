package encodingresults

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// inbox runner 依赖的消息属性。编码器不携带这些属性，由订阅包装层补齐。
const (
	attrEventID       = "event_id"
	attrEventType     = "event_type"
	attrAggregateType = "aggregate_type"
	attrAggregateID   = "aggregate_id"

	aggregateTypeVideo = "video"
)

var eventIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lingo-services-media/encoding-results"))

// deadLetterSink 将永久失败的通知转发至死信 topic。
type deadLetterSink struct {
	publisher gcpubsub.Publisher
	log       *log.Helper
	metrics   *metrics
	clock     func() time.Time
}

func newDeadLetterSink(publisher gcpubsub.Publisher, logger log.Logger, m *metrics) *deadLetterSink {
	return &deadLetterSink{
		publisher: publisher,
		log:       log.NewHelper(logger),
		metrics:   m,
		clock:     time.Now,
	}
}

// reject 返回 nil 表示消息可以 ack；死信发布失败时返回错误以触发重投。
func (d *deadLetterSink) reject(ctx context.Context, data []byte, attrs map[string]string, reason string, cause error, started time.Time) error {
	helper := d.log.WithContext(ctx)
	if d.publisher == nil {
		helper.Errorw("msg", "drop unprocessable encoding result", "reason", reason, "error", cause)
		d.metrics.record(ctx, resultDropped, "", d.clock().Sub(started))
		return nil
	}

	out := make(map[string]string, len(attrs)+2)
	maps.Copy(out, attrs)
	out["error_reason"] = reason
	out["error_message"] = cause.Error()

	if _, err := d.publisher.Publish(ctx, gcpubsub.Message{Data: data, Attributes: out}); err != nil {
		helper.Errorw("msg", "dead-letter publish failed, message will be redelivered", "reason", reason, "error", err)
		d.metrics.record(ctx, resultRetry, "", d.clock().Sub(started))
		return errors.Join(cause, err)
	}
	helper.Warnw("msg", "encoding result dead-lettered", "reason", reason, "error", cause)
	d.metrics.record(ctx, resultDeadLettered, "", d.clock().Sub(started))
	return nil
}

// DeadLetterSubscriber 包装编码结果订阅：无法解析的通知直接转入死信并 ack，
// 其余消息补齐 inbox 属性后交给下游处理。
type DeadLetterSubscriber struct {
	inner gcpubsub.Subscriber
	sink  *deadLetterSink
}

// NewDeadLetterSubscriber 构造包装订阅。deadLetter 为空时格式错误的通知仅记录日志后丢弃。
func NewDeadLetterSubscriber(inner gcpubsub.Subscriber, deadLetter gcpubsub.Publisher, logger log.Logger) *DeadLetterSubscriber {
	return &DeadLetterSubscriber{
		inner: inner,
		sink:  newDeadLetterSink(deadLetter, logger, newMetrics()),
	}
}

// Receive 满足 gcpubsub.Subscriber。
func (s *DeadLetterSubscriber) Receive(ctx context.Context, handler func(context.Context, *gcpubsub.Message) error) error {
	return s.inner.Receive(ctx, func(ctx context.Context, msg *gcpubsub.Message) error {
		if msg == nil {
			return nil
		}
		started := s.sink.clock()
		res, err := Decode(msg.Data)
		if err != nil {
			attrs := maps.Clone(msg.Attributes)
			if attrs == nil {
				attrs = make(map[string]string, 1)
			}
			attrs["original_message_id"] = msg.ID
			return s.sink.reject(ctx, msg.Data, attrs, reasonMalformed, err, started)
		}
		annotate(msg, res)
		return handler(ctx, msg)
	})
}

// Stop 停止底层订阅。
func (s *DeadLetterSubscriber) Stop() {
	s.inner.Stop()
}

func annotate(msg *gcpubsub.Message, res *Result) {
	if msg.Attributes == nil {
		msg.Attributes = make(map[string]string, 4)
	}
	if _, err := uuid.Parse(msg.Attributes[attrEventID]); err != nil {
		msg.Attributes[attrEventID] = deriveEventID(msg).String()
	}
	msg.Attributes[attrEventType] = res.EventType()
	msg.Attributes[attrAggregateType] = aggregateTypeVideo
	msg.Attributes[attrAggregateID] = res.Input.VideoID.String()
}

// deriveEventID 由 Pub/Sub 消息 ID 推导事件 ID，同一消息重投时命中同一条 inbox 记录。
func deriveEventID(msg *gcpubsub.Message) uuid.UUID {
	if msg.ID != "" {
		return uuid.NewSHA1(eventIDNamespace, []byte(msg.ID))
	}
	return uuid.NewSHA1(eventIDNamespace, msg.Data)
}
