// Package grpcserver 负责装配入站 gRPC Server 及其中间件栈。
//
// 媒体服务的业务接口走 HTTP（multipart 上传），gRPC 端口仅承载 Kratos 内建的
// grpc.health.v1 健康检查与反射，供 Cloud Run / 负载均衡探活。
package grpcserver

import (
	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	"github.com/bionicotaku/lingo-utils/observability"
	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	otelgrpcfilters "go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc/filters"
	"go.opentelemetry.io/otel"
	stdgrpc "google.golang.org/grpc"
	"google.golang.org/grpc/stats"
)

// NewGRPCServer 构造 gRPC Server 实例，监听 cfg.GRPC。
//
// 中间件链（按执行顺序）：
// 1. obsTrace.Server() - OpenTelemetry 追踪
// 2. recovery.Recovery() - Panic 恢复
// 3. metadata.Server() - 转发 cfg.MetadataKeys 前缀的 header
// 4. jwt（可选）
// 5. ratelimit.Server() - 限流保护
// 6. logging.Server() - 结构化日志
//
// metricsCfg 为 nil 时默认启用 otelgrpc 指标，且不采集健康检查 RPC。
func NewGRPCServer(cfg configloader.ServerConfig, metricsCfg *observability.MetricsConfig, jwt gcjwt.ServerMiddleware, logger log.Logger) *grpc.Server {
	metricsEnabled := true
	includeHealth := false
	if metricsCfg != nil {
		metricsEnabled = metricsCfg.GRPCEnabled
		includeHealth = metricsCfg.GRPCIncludeHealth
	}

	mws := []middleware.Middleware{
		obsTrace.Server(),
		recovery.Recovery(),
		metadata.Server(metadata.WithPropagatedPrefix(cfg.MetadataKeys...)),
	}
	if jwt != nil {
		mws = append(mws, middleware.Middleware(jwt))
	}
	mws = append(mws,
		ratelimit.Server(),
		logging.Server(logger),
	)

	opts := []grpc.ServerOption{
		grpc.Middleware(mws...),
	}
	if metricsEnabled {
		opts = append(opts, grpc.Options(stdgrpc.StatsHandler(newServerHandler(includeHealth))))
	}
	listener := cfg.GRPC
	if listener.Network != "" {
		opts = append(opts, grpc.Network(listener.Network))
	}
	if listener.Address != "" {
		opts = append(opts, grpc.Address(listener.Address))
	}
	if listener.Timeout > 0 {
		opts = append(opts, grpc.Timeout(listener.Timeout))
	}
	return grpc.NewServer(opts...)
}

// newServerHandler 构造 OpenTelemetry StatsHandler。
// includeHealth=false 时过滤 /grpc.health.v1.Health/Check，减少指标噪音。
func newServerHandler(includeHealth bool) stats.Handler {
	opts := []otelgrpc.Option{
		otelgrpc.WithMeterProvider(otel.GetMeterProvider()),
	}
	if !includeHealth {
		opts = append(opts, otelgrpc.WithFilter(otelgrpcfilters.Not(otelgrpcfilters.HealthCheck())))
	}
	return otelgrpc.NewServerHandler(opts...)
}
