// Package configloader 提供配置加载与归一化能力，供 Wire 装配使用。
package configloader

import "time"

// RuntimeConfig 聚合应用在运行期所需的配置片段。
type RuntimeConfig struct {
	Service       ServiceInfo
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
	Messaging     MessagingConfig
	Reconciler    ReconcilerConfig
}

// ServiceInfo 描述服务标识与运行环境。
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// ServerConfig 收敛入站 HTTP/gRPC 服务所需的网络与鉴权配置。
type ServerConfig struct {
	HTTP           ListenerConfig
	GRPC           ListenerConfig
	JWT            ServerJWTConfig
	Handlers       HandlerTimeoutConfig
	MetadataKeys   []string
	MaxUploadBytes int64 // 单次媒体上传的请求体上限
}

// ListenerConfig 描述单个监听端口。
type ListenerConfig struct {
	Network string
	Address string
	Timeout time.Duration
}

// ServerJWTConfig 管理入站请求的 JWT 校验策略。
type ServerJWTConfig struct {
	ExpectedAudience string
	SkipValidate     bool
	Required         bool
	HeaderKey        string
}

// HandlerTimeoutConfig 定义不同类型 Handler 的超时策略。
type HandlerTimeoutConfig struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
	Upload  time.Duration // 媒体上传，需要容纳大文件写入存储
}

// DatabaseConfig 包含 PostgreSQL 连接池及事务默认值。
type DatabaseConfig struct {
	DSN               string
	MaxOpenConns      int
	MinOpenConns      int
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	Schema            string
	PreparedStmts     bool
	PoolMetrics       bool
	Transaction       TransactionConfig
}

// TransactionConfig 指定事务默认隔离级别与超时策略。
type TransactionConfig struct {
	DefaultIsolation string
	DefaultTimeout   time.Duration
	LockTimeout      time.Duration
	MaxRetries       int
	MetricsEnabled   bool
}

// StorageConfig 描述原始媒体存储后端。
type StorageConfig struct {
	Driver    string
	LocalRoot string
	S3        S3Config
}

// S3Config 描述 S3 兼容存储。
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// ObservabilityConfig 聚合 tracing 与 metrics 的配置。
type ObservabilityConfig struct {
	GlobalAttributes map[string]string
	Tracing          TracingConfig
	Metrics          MetricsConfig
}

// TracingConfig 描述 OpenTelemetry 追踪导出的行为。
type TracingConfig struct {
	Enabled            bool
	Exporter           string
	Endpoint           string
	Headers            map[string]string
	Insecure           bool
	SamplingRatio      float64
	BatchTimeout       time.Duration
	ExportTimeout      time.Duration
	MaxQueueSize       int
	MaxExportBatchSize int
	Required           bool
	Attributes         map[string]string
}

// MetricsConfig 描述 OpenTelemetry 指标导出的行为。
type MetricsConfig struct {
	Enabled             bool
	Exporter            string
	Endpoint            string
	Headers             map[string]string
	Insecure            bool
	Interval            time.Duration
	DisableRuntimeStats bool
	Required            bool
	ResourceAttributes  map[string]string
	GRPCEnabled         bool
	GRPCIncludeHealth   bool
}

// MessagingConfig 汇总消息系统相关配置。
type MessagingConfig struct {
	Schema          string
	EncodeRequests  EncodeRequestsConfig
	EncodingResults EncodingResultsConfig
	Outbox          OutboxPublisherConfig
}

// EncodeRequestsConfig 描述编码请求的出站通道与投递方式。
type EncodeRequestsConfig struct {
	PubSub      PubSubConfig
	PublishMode string
}

// EncodingResultsConfig 描述编码结果订阅、死信 topic 与过期通知策略。
type EncodingResultsConfig struct {
	PubSub            PubSubConfig
	DeadLetterTopicID string
	StalePolicy       string
	Inbox             InboxConfig
}

// InboxConfig 配置 inbox_events 去重消费。
type InboxConfig struct {
	SourceService  string
	MaxConcurrency int
	LoggingEnabled *bool
	MetricsEnabled *bool
}

// PubSubConfig 提供与 GCP Pub/Sub 兼容的设置。
type PubSubConfig struct {
	ProjectID           string
	TopicID             string
	SubscriptionID      string
	OrderingKeyEnabled  bool
	LoggingEnabled      bool
	MetricsEnabled      bool
	EmulatorEndpoint    string
	PublishTimeout      time.Duration
	ExactlyOnceDelivery bool
	Receive             PubSubReceiveConfig
}

// PubSubReceiveConfig 控制订阅者拉取行为。
type PubSubReceiveConfig struct {
	NumGoroutines          int
	MaxOutstandingMessages int
	MaxOutstandingBytes    int
	MaxExtension           time.Duration
	MaxExtensionPeriod     time.Duration
}

// OutboxPublisherConfig 配置 Outbox 发布器的运行参数。
type OutboxPublisherConfig struct {
	BatchSize      int
	TickInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
	PublishTimeout time.Duration
	Workers        int
	LockTTL        time.Duration
	LoggingEnabled *bool
	MetricsEnabled *bool
}

// ReconcilerConfig 配置 PENDING 槽位对账任务。
type ReconcilerConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	BatchSize   int
	Concurrency int
}
