package encodingresults

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// MediaProcessor 在 inbox 事务内应用单条编码结果。
type MediaProcessor interface {
	ProcessInTx(ctx context.Context, sess txmanager.Session, input services.ProcessMediaInput) (services.ProcessOutcome, error)
}

// Handler 实现 inbox.Handler：成功返回 nil；永久失败转入死信后返回 nil；暂时失败返回错误触发重投。
type Handler struct {
	processor MediaProcessor
	sink      *deadLetterSink
	log       *log.Helper
	metrics   *metrics
	clock     func() time.Time
}

// NewHandler 构造编码结果处理器。deadLetter 为空时永久失败仅记录日志。
func NewHandler(processor MediaProcessor, deadLetter gcpubsub.Publisher, logger log.Logger) *Handler {
	m := newMetrics()
	return newHandler(processor, newDeadLetterSink(deadLetter, logger, m), logger, m)
}

func newHandler(processor MediaProcessor, sink *deadLetterSink, logger log.Logger, m *metrics) *Handler {
	return &Handler{
		processor: processor,
		sink:      sink,
		log:       log.NewHelper(logger),
		metrics:   m,
		clock:     time.Now,
	}
}

// Handle 在 inbox runner 开启的事务内处理结果。
func (h *Handler) Handle(ctx context.Context, sess txmanager.Session, res *Result, _ *store.InboxEvent) error {
	if res == nil {
		return nil
	}
	started := h.clock()
	input := res.Input
	if res.EncoderError != "" {
		h.log.WithContext(ctx).Warnw("msg", "encoder reported failure",
			"video_id", input.VideoID, "media_type", input.MediaType, "status", input.Status, "encoder_error", res.EncoderError)
	}

	outcome, err := h.processor.ProcessInTx(ctx, sess, input)
	if err != nil {
		if isPermanent(err) {
			attrs := map[string]string{
				"video_id":   input.VideoID.String(),
				"media_type": string(input.MediaType),
			}
			if res.EncoderError != "" {
				attrs["encoder_error"] = res.EncoderError
			}
			return h.sink.reject(ctx, res.Raw, attrs, kerrors.Reason(err), err, started)
		}
		h.metrics.record(ctx, resultRetry, string(input.MediaType), h.clock().Sub(started))
		h.log.WithContext(ctx).Warnw("msg", "encoding result will be redelivered",
			"video_id", input.VideoID, "media_type", input.MediaType, "error", err)
		return err
	}

	h.metrics.record(ctx, string(outcome), string(input.MediaType), h.clock().Sub(started))
	return nil
}

// isPermanent 判断失败是否不会因重投而改变：客户端类错误与格式错误。
func isPermanent(err error) bool {
	if errors.Is(err, ErrMalformedNotification) {
		return true
	}
	code := kerrors.Code(err)
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
