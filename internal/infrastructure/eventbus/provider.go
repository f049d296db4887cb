package eventbus

import (
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet 暴露事件发布器。
var ProviderSet = wire.NewSet(
	ProvidePublisher,
	wire.Bind(new(services.MediaEventPublisher), new(*Publisher)),
)

// ProvidePublisher 按配置选择投递方式。
func ProvidePublisher(
	mode Mode,
	repo *repositories.OutboxRepository,
	tx txmanager.Manager,
	publisher gcpubsub.Publisher,
	logger log.Logger,
) *Publisher {
	helper := log.NewHelper(logger)
	if mode == ModePubSub {
		if publisher == nil {
			helper.Warn("pubsub publish mode selected without a publisher, falling back to outbox")
		} else {
			helper.Info("encode requests are published directly to pubsub")
			return NewPubSubPublisher(publisher, logger)
		}
	}
	return NewOutboxPublisher(repo, tx, logger)
}

var _ OutboxWriter = (*repositories.OutboxRepository)(nil)
