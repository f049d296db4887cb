//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

//go:generate go run github.com/google/wire/cmd/wire

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-media/internal/controllers"
	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/eventbus"
	grpcserver "github.com/bionicotaku/lingo-services-media/internal/infrastructure/grpc_server"
	httpserver "github.com/bionicotaku/lingo-services-media/internal/infrastructure/http_server"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"
	outboxtasks "github.com/bionicotaku/lingo-services-media/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2"
	"github.com/google/wire"
)

// wireApp 构建媒体服务进程。
//
// 依赖注入顺序:
//  1. 配置加载: configloader.ProviderSet 解析配置并派生组件配置
//  2. 基础设施: gclog → observability → gcjwt → pgxpoolx → txmanager → gcpubsub（编码请求 topic）
//  3. 业务层: repositories → eventbus → services → controllers
//  4. 服务器: http_server（业务接口）+ grpc_server（健康检查）
//  5. 后台: outbox Runner 作为进程内 worker
func wireApp(context.Context, configloader.Params) (*kratos.App, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		gcjwt.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcpubsub.ProviderSet,
		repositories.ProviderSet,
		wire.Bind(new(services.VideoRepository), new(*repositories.VideoRepository)),
		wire.Bind(new(services.ReferenceChecker), new(*repositories.ReferenceRepository)),
		provideBlobStore,
		eventbus.ProviderSet,
		services.ProviderSet,
		wire.Bind(new(controllers.VideoCatalog), new(*services.VideoCatalogService)),
		wire.Bind(new(controllers.MediaUploader), new(*services.UploadVideoService)),
		controllers.ProviderSet,
		httpserver.ProviderSet,
		grpcserver.ProviderSet,
		outboxtasks.ProvideRunner,
		newApp,
	))
}

// Provider 速查（完整签名见各包）:
//
//   - configloader.LoadRuntimeConfig(Params) (RuntimeConfig, error)
//   - configloader.ProvideStorageConfig(RuntimeConfig) blobstore.Config
//   - configloader.ProvideUploadLimits(RuntimeConfig) controllers.UploadLimits
//   - configloader.ProvidePublishMode(MessagingConfig) (eventbus.Mode, error)
//   - configloader.ProvideStalePolicy(MessagingConfig) (services.StalePolicy, error)
//   - configloader.ProvidePubSubConfig(MessagingConfig) gcpubsub.Config   // 编码请求 topic
//   - configloader.ProvideOutboxConfig(MessagingConfig) (outboxcfg.Config, error)
//   - provideBlobStore(blobstore.Config, log.Logger) (services.BlobStore, error)
//   - eventbus.ProvidePublisher(Mode, *OutboxRepository, txmanager.Manager, gcpubsub.Publisher, log.Logger) *eventbus.Publisher
//   - services.NewUploadVideoService / NewVideoCatalogService / NewProcessMediaService
//   - controllers.NewVideoHandler / NewMediaHandler(MediaUploader, *BaseHandler, UploadLimits, log.Logger)
//   - httpserver.NewHTTPServer(ServerConfig, gcjwt.ServerMiddleware, *VideoHandler, *MediaHandler, log.Logger) *khttp.Server
//   - grpcserver.NewGRPCServer(ServerConfig, *observability.MetricsConfig, gcjwt.ServerMiddleware, log.Logger) *grpc.Server
//   - outboxtasks.ProvideRunner(*OutboxRepository, gcpubsub.Publisher, gcpubsub.Config, outboxcfg.Config, log.Logger) *outboxpublisher.Runner
