//go:build wireinject
// +build wireinject

// Package main 为编码结果消费者提供 Wire 依赖注入定义。
package main

import (
	"context"

	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"
	encodingresults "github.com/bionicotaku/lingo-services-media/internal/tasks/encoding_results"

	"github.com/bionicotaku/lingo-utils/gclog"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireEncodingResultsTask(context.Context, configloader.Params) (*encodingResultsApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		configloader.EncodingResultsSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		repositories.NewVideoRepository,
		repositories.NewInboxRepository,
		wire.Bind(new(services.VideoRepository), new(*repositories.VideoRepository)),
		services.NewProcessMediaService,
		encodingresults.ProvideRunner,
		newEncodingResultsApp,
	))
}
