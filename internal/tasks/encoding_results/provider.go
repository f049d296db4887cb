package encodingresults

import (
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// ProvideRunner 装配编码结果 Runner。订阅未配置时返回 nil，由入口决定是否退出。
func ProvideRunner(
	processor *services.ProcessMediaService,
	inboxRepo *repositories.InboxRepository,
	tx txmanager.Manager,
	sub configloader.EncodingResultsSubscriber,
	deadLetter configloader.DeadLetterPublisher,
	outboxCfg outboxcfg.Config,
	logger log.Logger,
) *Runner {
	realSub := gcpubsub.Subscriber(sub)
	if processor == nil || inboxRepo == nil || realSub == nil || logger == nil {
		return nil
	}
	var dlq gcpubsub.Publisher
	if deadLetter != nil {
		dlq = gcpubsub.Publisher(deadLetter)
	} else {
		log.NewHelper(logger).Warn("dead-letter topic not configured, unprocessable results will be dropped")
	}
	runner, err := NewRunner(RunnerParams{
		Subscriber: realSub,
		InboxRepo:  inboxRepo,
		Processor:  processor,
		TxManager:  tx,
		DeadLetter: dlq,
		Logger:     logger,
		Config:     outboxCfg.Inbox,
	})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init encoding results runner failed", "error", err)
		return nil
	}
	return runner
}
