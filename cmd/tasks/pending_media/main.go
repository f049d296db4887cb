// Package main 提供 PENDING 媒体对账任务的独立进程入口。
//
// 对账器周期性扫描停留在 PENDING 的音视频槽位并重新发布编码请求，
// 弥补上传事务提交后、编码请求送达前进程崩溃造成的丢失。
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
	pendingmedia "github.com/bionicotaku/lingo-services-media/internal/tasks/pending_media"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

type pendingMediaApp struct {
	Reconciler *pendingmedia.Reconciler
	Logger     log.Logger
}

func newPendingMediaApp(_ *obswire.Component, logger log.Logger, reconciler *pendingmedia.Reconciler) (*pendingMediaApp, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &pendingMediaApp{Reconciler: reconciler, Logger: logger}, nil
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	once := flag.Bool("once", false, "run a single reconciliation pass and exit")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}
	app, cleanup, err := wirePendingMediaTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	helper := log.NewHelper(app.Logger)
	if app.Reconciler == nil {
		helper.Warn("pending media reconciler disabled (invalid reconciler configuration)")
		return
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		n, err := app.Reconciler.RunOnce(runCtx)
		if err != nil {
			helper.Errorf("pending media reconciliation failed: %v", err)
			os.Exit(1)
		}
		helper.Infof("pending media reconciliation finished: republished=%d", n)
		return
	}

	helper.Info("starting pending media reconciler")
	if err := app.Reconciler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("pending media reconciler stopped unexpectedly: %v", err)
		os.Exit(1)
	}
	helper.Info("pending media reconciler stopped")
}
