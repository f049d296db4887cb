// Package httpserver 负责装配入站 HTTP Server，承载视频目录与媒体上传接口。
package httpserver

import (
	"net/http"

	"github.com/bionicotaku/lingo-services-media/internal/controllers"
	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// HealthPath 是 HTTP 探活路径，不经过中间件链。
const HealthPath = "/healthz"

// ProviderSet 暴露 HTTP Server 的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer 构造 Kratos HTTP Server 并挂载业务路由。
//
// 中间件链与 gRPC 侧保持一致：追踪、恢复、metadata 传播、可选 JWT、日志。
// 路由 handler 通过 ctx.Middleware 执行这条链，因此 operation 由各 handler 自行设置。
func NewHTTPServer(cfg configloader.ServerConfig, jwt gcjwt.ServerMiddleware, videos *controllers.VideoHandler, media *controllers.MediaHandler, logger log.Logger) *khttp.Server {
	mws := []middleware.Middleware{
		obsTrace.Server(),
		recovery.Recovery(),
		metadata.Server(metadata.WithPropagatedPrefix(cfg.MetadataKeys...)),
	}
	if jwt != nil {
		mws = append(mws, middleware.Middleware(jwt))
	}
	mws = append(mws, logging.Server(logger))

	opts := []khttp.ServerOption{
		khttp.Middleware(mws...),
	}
	listener := cfg.HTTP
	if listener.Network != "" {
		opts = append(opts, khttp.Network(listener.Network))
	}
	if listener.Address != "" {
		opts = append(opts, khttp.Address(listener.Address))
	}
	// Server 级超时会截断请求 Context，需至少覆盖上传超时，细分超时交给 BaseHandler。
	if timeout := max(listener.Timeout, cfg.Handlers.Upload); timeout > 0 {
		opts = append(opts, khttp.Timeout(timeout))
	}

	srv := khttp.NewServer(opts...)
	srv.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if videos != nil {
		videos.Register(srv)
	}
	if media != nil {
		media.Register(srv)
	}
	return srv
}
