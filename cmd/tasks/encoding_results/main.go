// Package main 提供编码结果消费者的独立进程入口。
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
	encodingresults "github.com/bionicotaku/lingo-services-media/internal/tasks/encoding_results"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

type encodingResultsApp struct {
	Runner *encodingresults.Runner
	Logger log.Logger
}

func newEncodingResultsApp(_ *obswire.Component, logger log.Logger, runner *encodingresults.Runner) (*encodingResultsApp, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &encodingResultsApp{Runner: runner, Logger: logger}, nil
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireEncodingResultsTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	helper := log.NewHelper(app.Logger)
	if app.Runner == nil {
		helper.Warn("encoding results runner disabled (missing messaging.encoding_results configuration)")
		return
	}

	helper.Info("starting encoding results consumer")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("encoding results consumer stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("encoding results consumer stopped")
}
