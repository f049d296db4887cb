package configloader

import (
	"fmt"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	txconfig "github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/bionicotaku/lingo-services-media/internal/controllers"
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/blobstore"
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/eventbus"
	"github.com/bionicotaku/lingo-services-media/internal/services"
)

// ProviderSet 暴露配置加载相关的依赖注入入口。
var ProviderSet = wire.NewSet(
	LoadRuntimeConfig,
	ProvideServiceInfo,
	ProvideLoggerConfig,
	ProvideObservabilityConfig,
	ProvideObservabilityInfo,
	ProvideServerConfig,
	ProvideDatabaseConfig,
	ProvidePgxConfig,
	ProvideTxConfig,
	ProvideJWTConfig,
	ProvideMessagingConfig,
	ProvidePubSubConfig,
	ProvidePubSubDependencies,
	ProvideOutboxConfig,
	ProvideHandlerTimeouts,
	ProvideUploadLimits,
	ProvideStorageConfig,
	ProvidePublishMode,
	ProvideStalePolicy,
	ProvideReconcilerConfig,
)

// LoadRuntimeConfig 调用 Load 并供 Wire 使用。
func LoadRuntimeConfig(params Params) (RuntimeConfig, error) {
	return Load(params)
}

// ProvideServiceInfo 返回服务元信息。
func ProvideServiceInfo(cfg RuntimeConfig) ServiceInfo {
	return cfg.Service
}

// ProvideLoggerConfig 构造 gclog.Config。
func ProvideLoggerConfig(info ServiceInfo) gclog.Config {
	return gclog.Config{
		Service:              info.Name,
		Version:              info.Version,
		Environment:          info.Environment,
		InstanceID:           info.InstanceID,
		EnableSourceLocation: true,
		StaticLabels: map[string]string{
			"service.id": info.InstanceID,
		},
	}
}

// ProvideObservabilityConfig 将 ObservabilityConfig 转换为 obswire.ObservabilityConfig。
// 追踪与指标段落全部留空时对应字段为 nil，由 observability 组件套用默认值。
func ProvideObservabilityConfig(cfg RuntimeConfig) obswire.ObservabilityConfig {
	return obswire.ObservabilityConfig{
		Tracing:          toTracingConfig(cfg.Observability.Tracing),
		Metrics:          toMetricsConfig(cfg.Observability.Metrics),
		GlobalAttributes: cfg.Observability.GlobalAttributes,
	}
}

func toTracingConfig(t TracingConfig) *obswire.TracingConfig {
	if !t.Enabled && t.Endpoint == "" && t.Exporter == "" {
		return nil
	}
	out := &obswire.TracingConfig{
		Enabled:       t.Enabled,
		Exporter:      t.Exporter,
		Endpoint:      t.Endpoint,
		Headers:       t.Headers,
		Insecure:      t.Insecure,
		SamplingRatio: t.SamplingRatio,
		Attributes:    t.Attributes,
		Required:      t.Required,
	}
	out.BatchTimeout, out.ExportTimeout = t.BatchTimeout, t.ExportTimeout
	out.MaxQueueSize, out.MaxExportBatchSize = t.MaxQueueSize, t.MaxExportBatchSize
	return out
}

func toMetricsConfig(m MetricsConfig) *obswire.MetricsConfig {
	if !m.Enabled && m.Exporter == "" && m.Endpoint == "" {
		return nil
	}
	out := &obswire.MetricsConfig{
		Enabled:            m.Enabled,
		Exporter:           m.Exporter,
		Endpoint:           m.Endpoint,
		Headers:            m.Headers,
		Insecure:           m.Insecure,
		Interval:           m.Interval,
		ResourceAttributes: m.ResourceAttributes,
		Required:           m.Required,
	}
	out.DisableRuntimeStats = m.DisableRuntimeStats
	// gRPC 端口只有健康检查，GRPCIncludeHealth 默认关闭以免指标被探活淹没。
	out.GRPCEnabled, out.GRPCIncludeHealth = m.GRPCEnabled, m.GRPCIncludeHealth
	return out
}

// ProvideObservabilityInfo 转换为 obswire.ServiceInfo。
func ProvideObservabilityInfo(info ServiceInfo) obswire.ServiceInfo {
	return obswire.ServiceInfo{
		Name:        info.Name,
		Version:     info.Version,
		Environment: info.Environment,
	}
}

// ProvideServerConfig 返回服务端 HTTP/gRPC 配置。
func ProvideServerConfig(cfg RuntimeConfig) ServerConfig {
	return cfg.Server
}

// ProvideDatabaseConfig 返回数据库配置。
func ProvideDatabaseConfig(cfg RuntimeConfig) DatabaseConfig {
	return cfg.Database
}

// ProvidePgxConfig 将 DatabaseConfig 转换为 pgxpoolx.Config。
func ProvidePgxConfig(dbCfg DatabaseConfig) pgxpoolx.Config {
	enablePrepared := dbCfg.PreparedStmts
	metricsEnabled := dbCfg.PoolMetrics
	return pgxpoolx.Config{
		DSN:                dbCfg.DSN,
		MaxConns:           int32(dbCfg.MaxOpenConns),
		MinConns:           int32(dbCfg.MinOpenConns),
		MaxConnLifetime:    dbCfg.MaxConnLifetime,
		MaxConnIdleTime:    dbCfg.MaxConnIdleTime,
		HealthCheckPeriod:  dbCfg.HealthCheckPeriod,
		Schema:             dbCfg.Schema,
		EnablePreparedStmt: &enablePrepared,
		MetricsEnabled:     &metricsEnabled,
	}
}

// ProvideTxConfig 构造 txmanager.Config。
func ProvideTxConfig(cfg RuntimeConfig) txconfig.Config {
	tx := cfg.Database.Transaction
	return txconfig.Config{
		DefaultIsolation: tx.DefaultIsolation,
		DefaultTimeout:   tx.DefaultTimeout,
		LockTimeout:      tx.LockTimeout,
		MaxRetries:       tx.MaxRetries,
		MetricsEnabled:   boolPtr(tx.MetricsEnabled),
	}
}

// ProvideHandlerTimeouts 将 Server 层配置映射为控制层使用的超时策略。
func ProvideHandlerTimeouts(cfg RuntimeConfig) controllers.HandlerTimeouts {
	handlers := cfg.Server.Handlers
	return controllers.HandlerTimeouts{
		Default: handlers.Default,
		Command: handlers.Command,
		Query:   handlers.Query,
		Upload:  handlers.Upload,
	}
}

// ProvideUploadLimits 返回媒体上传的请求体上限。
func ProvideUploadLimits(cfg RuntimeConfig) controllers.UploadLimits {
	return controllers.UploadLimits{MaxBytes: cfg.Server.MaxUploadBytes}
}

// ProvideJWTConfig 构造入站 JWT 配置；本服务不发起出站 gRPC 调用。
func ProvideJWTConfig(cfg RuntimeConfig) gcjwt.Config {
	var serverCfg *gcjwt.ServerConfig
	if cfg.Server.JWT.ExpectedAudience != "" || cfg.Server.JWT.Required || !cfg.Server.JWT.SkipValidate {
		serverCfg = &gcjwt.ServerConfig{
			ExpectedAudience: cfg.Server.JWT.ExpectedAudience,
			SkipValidate:     cfg.Server.JWT.SkipValidate,
			Required:         cfg.Server.JWT.Required,
			HeaderKey:        cfg.Server.JWT.HeaderKey,
		}
	}
	return gcjwt.Config{Server: serverCfg}
}

// ProvideMessagingConfig 返回消息相关配置。
func ProvideMessagingConfig(cfg RuntimeConfig) MessagingConfig {
	return cfg.Messaging
}

// ProvidePubSubConfig 返回编码请求 topic 的 gcpubsub.Config，供 gcpubsub.ProviderSet 构造发布器。
func ProvidePubSubConfig(msg MessagingConfig) gcpubsub.Config {
	return toGCPubSubConfig(msg.EncodeRequests.PubSub)
}

func toGCPubSubConfig(cfg PubSubConfig) gcpubsub.Config {
	if cfg.ProjectID == "" {
		return gcpubsub.Config{}
	}
	result := gcpubsub.Config{
		ProjectID:           cfg.ProjectID,
		TopicID:             cfg.TopicID,
		SubscriptionID:      cfg.SubscriptionID,
		PublishTimeout:      cfg.PublishTimeout,
		OrderingKeyEnabled:  boolPtr(cfg.OrderingKeyEnabled),
		EnableLogging:       boolPtr(cfg.LoggingEnabled),
		EnableMetrics:       boolPtr(cfg.MetricsEnabled),
		EmulatorEndpoint:    cfg.EmulatorEndpoint,
		ExactlyOnceDelivery: cfg.ExactlyOnceDelivery,
		Receive: gcpubsub.ReceiveConfig{
			NumGoroutines:          cfg.Receive.NumGoroutines,
			MaxOutstandingMessages: cfg.Receive.MaxOutstandingMessages,
			MaxOutstandingBytes:    cfg.Receive.MaxOutstandingBytes,
			MaxExtension:           cfg.Receive.MaxExtension,
			MaxExtensionPeriod:     cfg.Receive.MaxExtensionPeriod,
		},
	}
	return result.Normalize()
}

// ProvidePubSubDependencies 注入 Pub/Sub 依赖。
func ProvidePubSubDependencies(logger log.Logger) gcpubsub.Dependencies {
	return gcpubsub.Dependencies{Logger: logger}
}

// ProvideOutboxConfig 构造 outboxcfg.Config。
func ProvideOutboxConfig(msg MessagingConfig) (outboxcfg.Config, error) {
	cfg := outboxcfg.Config{
		Schema: msg.Schema,
		Publisher: outboxcfg.PublisherConfig{
			BatchSize:      msg.Outbox.BatchSize,
			TickInterval:   msg.Outbox.TickInterval,
			InitialBackoff: msg.Outbox.InitialBackoff,
			MaxBackoff:     msg.Outbox.MaxBackoff,
			MaxAttempts:    msg.Outbox.MaxAttempts,
			PublishTimeout: msg.Outbox.PublishTimeout,
			Workers:        msg.Outbox.Workers,
			LockTTL:        msg.Outbox.LockTTL,
			LoggingEnabled: msg.Outbox.LoggingEnabled,
			MetricsEnabled: msg.Outbox.MetricsEnabled,
		},
		Inbox: outboxcfg.InboxConfig{
			SourceService:  msg.EncodingResults.Inbox.SourceService,
			MaxConcurrency: msg.EncodingResults.Inbox.MaxConcurrency,
			LoggingEnabled: msg.EncodingResults.Inbox.LoggingEnabled,
			MetricsEnabled: msg.EncodingResults.Inbox.MetricsEnabled,
		},
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return outboxcfg.Config{}, fmt.Errorf("validate outbox config: %w", err)
	}
	return cfg, nil
}

// ProvideStorageConfig 将存储配置转换为 blobstore.Config。
func ProvideStorageConfig(cfg RuntimeConfig) blobstore.Config {
	return blobstore.Config{
		Driver:    cfg.Storage.Driver,
		LocalRoot: cfg.Storage.LocalRoot,
		S3: blobstore.S3Config{
			Bucket:   cfg.Storage.S3.Bucket,
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
			Prefix:   cfg.Storage.S3.Prefix,
		},
	}
}

// ProvidePublishMode 解析编码请求的投递方式。
func ProvidePublishMode(msg MessagingConfig) (eventbus.Mode, error) {
	return eventbus.ParseMode(msg.EncodeRequests.PublishMode)
}

// ProvideStalePolicy 解析过期通知策略。
func ProvideStalePolicy(msg MessagingConfig) (services.StalePolicy, error) {
	return services.ParseStalePolicy(msg.EncodingResults.StalePolicy)
}

// ProvideReconcilerConfig 返回对账任务配置。
func ProvideReconcilerConfig(cfg RuntimeConfig) ReconcilerConfig {
	return cfg.Reconciler
}

func boolPtr(v bool) *bool {
	return &v
}
