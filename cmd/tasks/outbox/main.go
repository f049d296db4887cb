// Package main 提供 Outbox Runner 独立进程入口，把 media.outbox_events 中的编码请求投递到 Pub/Sub。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2/log"
)

type outboxTaskApp struct {
	Runner *outboxpublisher.Runner
	Logger log.Logger
}

func newOutboxTaskApp(_ *obswire.Component, logger log.Logger, runner *outboxpublisher.Runner) (*outboxTaskApp, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &outboxTaskApp{Runner: runner, Logger: logger}, nil
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireOutboxTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	if app.Runner == nil {
		helper.Warn("outbox runner disabled (missing messaging.encode_requests topic)")
		return
	}

	helper.Info("starting outbox publisher task")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("outbox runner stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("outbox publisher stopped")
}
