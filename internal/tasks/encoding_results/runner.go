package encodingresults

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-media/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/inbox"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// Runner 封装编码结果消费循环（基于 Inbox Runner）。
type Runner struct {
	delegate   *inbox.Runner[Result]
	subscriber *DeadLetterSubscriber
	log        *log.Helper
}

// RunnerParams 注入 Runner 所需依赖。
type RunnerParams struct {
	Subscriber gcpubsub.Subscriber
	InboxRepo  *repositories.InboxRepository
	Processor  MediaProcessor
	TxManager  txmanager.Manager
	DeadLetter gcpubsub.Publisher
	Logger     log.Logger
	Config     config.InboxConfig
}

// NewRunner 构造 Runner。
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Subscriber == nil {
		return nil, fmt.Errorf("encoding results: subscriber is required")
	}
	if params.InboxRepo == nil {
		return nil, fmt.Errorf("encoding results: inbox repository is required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("encoding results: processor is required")
	}
	if params.TxManager == nil {
		return nil, fmt.Errorf("encoding results: tx manager is required")
	}
	if params.Logger == nil {
		params.Logger = log.DefaultLogger
	}

	m := newMetrics()
	sink := newDeadLetterSink(params.DeadLetter, params.Logger, m)
	subscriber := &DeadLetterSubscriber{inner: params.Subscriber, sink: sink}

	delegate, err := inbox.NewRunner[Result](inbox.RunnerParams[Result]{
		Store:      params.InboxRepo.Shared(),
		Subscriber: subscriber,
		TxManager:  params.TxManager,
		Decoder:    resultDecoder{},
		Handler:    newHandler(params.Processor, sink, params.Logger, m),
		Config:     params.Config.Normalize(),
		Logger:     params.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		delegate:   delegate,
		subscriber: subscriber,
		log:        log.NewHelper(params.Logger),
	}, nil
}

// Run 阻塞消费直至 ctx 取消。
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.delegate == nil {
		return nil
	}
	r.log.Info("encoding results consumer started")
	err := r.delegate.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("encoding results: %w", err)
	}
	r.log.Info("encoding results consumer stopped")
	return nil
}

// Stop 停止底层订阅。
func (r *Runner) Stop() {
	if r == nil || r.subscriber == nil {
		return
	}
	r.subscriber.Stop()
}
