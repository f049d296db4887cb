//go:build wireinject
// +build wireinject

// Package main 为 PENDING 媒体对账任务提供 Wire 依赖注入定义。
package main

import (
	"context"

	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/eventbus"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	pendingmedia "github.com/bionicotaku/lingo-services-media/internal/tasks/pending_media"

	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

func wirePendingMediaTask(context.Context, configloader.Params) (*pendingMediaApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcpubsub.ProviderSet,
		repositories.NewVideoRepository,
		repositories.NewOutboxRepository,
		eventbus.ProviderSet,
		pendingmedia.ProvideReconciler,
		newPendingMediaApp,
	))
}
