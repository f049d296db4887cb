//go:build wireinject
// +build wireinject

// Package main 为 outbox 投递任务提供 Wire 依赖注入定义。
package main

import (
	"context"

	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	outboxtasks "github.com/bionicotaku/lingo-services-media/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

var outboxRepositorySet = wire.NewSet(repositories.NewOutboxRepository)

func wireOutboxTask(context.Context, configloader.Params) (*outboxTaskApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		gcpubsub.ProviderSet,
		outboxRepositorySet,
		outboxtasks.ProvideRunner,
		newOutboxTaskApp,
	))
}

