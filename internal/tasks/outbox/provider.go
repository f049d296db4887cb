// Package outbox 将 media.outbox_events 中的编码请求投递到 Pub/Sub。
package outbox

import (
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"

	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// ProvideRunner 将 Outbox 仓储与编码请求 topic 的发布器包装为 Outbox Runner。
// topic 未配置时返回 nil，服务进程据此跳过后台投递。
func ProvideRunner(
	repo *repositories.OutboxRepository,
	publisher gcpubsub.Publisher,
	pubCfg gcpubsub.Config,
	cfg outboxcfg.Config,
	logger log.Logger,
) *outboxpublisher.Runner {
	if repo == nil || logger == nil {
		return nil
	}
	helper := log.NewHelper(logger)
	if pubCfg.TopicID == "" || publisher == nil {
		helper.Warn("skip initializing outbox runner: encode request topic not configured")
		return nil
	}

	publisherCfg := cfg.Normalize().Publisher

	meterProvider := otel.GetMeterProvider()
	if !boolValue(publisherCfg.MetricsEnabled, true) {
		meterProvider = noopmetric.NewMeterProvider()
	}

	if boolValue(publisherCfg.LoggingEnabled, true) {
		helper.Infof("init outbox runner: topic=%s batch_size=%d workers=%d tick_interval=%s",
			pubCfg.TopicID, publisherCfg.BatchSize, publisherCfg.Workers, publisherCfg.TickInterval)
	}

	runner, err := outboxpublisher.NewRunner(outboxpublisher.RunnerParams{
		Store:     repo.Shared(),
		Publisher: publisher,
		Config:    publisherCfg,
		Logger:    logger,
		Meter:     meterProvider.Meter("lingo-services-media.outbox"),
	})
	if err != nil {
		helper.Errorw("msg", "init outbox runner failed", "error", err)
		return nil
	}
	return runner
}

func boolValue(ptr *bool, def bool) bool {
	if ptr == nil {
		return def
	}
	return *ptr
}
