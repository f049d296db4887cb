// Package pendingmedia 定期为长时间停留在 PENDING 的音视频槽位重发编码请求。
package pendingmedia

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store 定义对账任务所需的仓储能力。
type Store interface {
	ListStalePending(ctx context.Context, sess txmanager.Session, olderThan time.Time, limit int) ([]po.PendingMedia, error)
	TouchPending(ctx context.Context, sess txmanager.Session, item po.PendingMedia) (bool, error)
}

// Config 控制扫描节奏与并发。
type Config struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	BatchSize   int
	Concurrency int
}

// Normalize 填充默认值。
func (c Config) Normalize() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 15 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Reconciler 扫描卡住的槽位并重新发布编码请求。
//
// 先发布后刷新时间戳：发布失败的槽位会在下一轮再次被选中。
type Reconciler struct {
	store     Store
	publisher services.MediaEventPublisher
	cfg       Config
	log       *log.Helper
	metrics   *metrics
	clock     func() time.Time
}

// NewReconciler 构造对账任务。
func NewReconciler(store Store, publisher services.MediaEventPublisher, cfg Config, logger log.Logger) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("pending media: store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("pending media: publisher is required")
	}
	return &Reconciler{
		store:     store,
		publisher: publisher,
		cfg:       cfg.Normalize(),
		log:       log.NewHelper(logger),
		metrics:   newMetrics(),
		clock:     time.Now,
	}, nil
}

// WithClock 提供测试替换时间。
func (r *Reconciler) WithClock(fn func() time.Time) {
	if r == nil || fn == nil {
		return
	}
	r.clock = fn
}

// Run 按 Interval 周期执行 RunOnce，直至 ctx 取消。
func (r *Reconciler) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.log.Infof("pending media reconciler started: interval=%s stale_after=%s batch_size=%d", r.cfg.Interval, r.cfg.StaleAfter, r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.WithContext(ctx).Errorw("msg", "pending media sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.log.Info("pending media reconciler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce 执行一轮扫描，返回成功重发的数量。单个槽位失败不会中断本轮。
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	now := r.clock().UTC()
	items, err := r.store.ListStalePending(ctx, nil, now.Add(-r.cfg.StaleAfter), r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("pending media: list: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	var republished atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, item := range items {
		g.Go(func() error {
			if err := r.republish(gctx, item, now); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				r.metrics.record(gctx, "failure")
				r.log.WithContext(gctx).Warnw("msg", "republish encode request failed",
					"video_id", item.VideoID, "media_type", item.MediaType, "error", err)
				return nil
			}
			republished.Add(1)
			r.metrics.record(gctx, "success")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(republished.Load()), err
	}

	r.log.WithContext(ctx).Infof("pending media sweep done: candidates=%d republished=%d", len(items), republished.Load())
	return int(republished.Load()), nil
}

func (r *Reconciler) republish(ctx context.Context, item po.PendingMedia, now time.Time) error {
	event, err := outboxevents.NewAudioVideoMediaUploadedEvent(item.VideoID, item.MediaType, item.RawLocation, uuid.New(), now)
	if err != nil {
		return err
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		return err
	}
	touched, err := r.store.TouchPending(ctx, nil, item)
	if err != nil {
		return fmt.Errorf("touch: %w", err)
	}
	if !touched {
		r.log.WithContext(ctx).Debugf("slot changed during republish: video_id=%s media_type=%s", item.VideoID, item.MediaType)
	}
	return nil
}
