package configloader

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 支持在配置文件中以 "5s"、"1m30s" 形式书写时长，纯数字按秒解析。
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler。
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Std 转换为 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Bootstrap 对应 configs/config.yaml 的顶层结构。
type Bootstrap struct {
	Server        Server        `json:"server"`
	Data          Data          `json:"data"`
	Storage       Storage       `json:"storage"`
	Messaging     Messaging     `json:"messaging"`
	Reconciler    Reconciler    `json:"reconciler"`
	Observability Observability `json:"observability"`
}

// Server 描述入站 HTTP/gRPC 服务。
type Server struct {
	HTTP         Listener `json:"http"`
	GRPC         Listener `json:"grpc"`
	JWT          JWT      `json:"jwt"`
	Handlers     Handlers `json:"handlers"`
	MetadataKeys []string `json:"metadata_keys"`
}

// Listener 描述单个监听端口。
type Listener struct {
	Network string   `json:"network" validate:"omitempty,oneof=tcp tcp4 tcp6 unix"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout" validate:"gte=0"`
}

// JWT 描述入站 JWT 校验。
type JWT struct {
	ExpectedAudience string `json:"expected_audience"`
	SkipValidate     bool   `json:"skip_validate"`
	Required         bool   `json:"required"`
	HeaderKey        string `json:"header_key"`
}

// Handlers 描述 Handler 超时。
type Handlers struct {
	DefaultTimeout Duration `json:"default_timeout" validate:"gte=0"`
	CommandTimeout Duration `json:"command_timeout" validate:"gte=0"`
	QueryTimeout   Duration `json:"query_timeout" validate:"gte=0"`
	UploadTimeout  Duration `json:"upload_timeout" validate:"gte=0"`
	MaxUploadBytes int64    `json:"max_upload_bytes" validate:"gte=0"`
}

// Data 描述数据源。
type Data struct {
	Postgres Postgres `json:"postgres"`
}

// Postgres 描述连接池与事务默认值。
type Postgres struct {
	DSN                       string      `json:"dsn" validate:"required"`
	MaxOpenConns              int         `json:"max_open_conns" validate:"gte=0"`
	MinOpenConns              int         `json:"min_open_conns" validate:"gte=0"`
	MaxConnLifetime           Duration    `json:"max_conn_lifetime"`
	MaxConnIdleTime           Duration    `json:"max_conn_idle_time"`
	HealthCheckPeriod         Duration    `json:"health_check_period"`
	Schema                    string      `json:"schema"`
	PreparedStatementsEnabled bool        `json:"prepared_statements_enabled"`
	PoolMetricsEnabled        bool        `json:"pool_metrics_enabled"`
	Transaction               Transaction `json:"transaction"`
}

// Transaction 描述事务默认值。
type Transaction struct {
	DefaultIsolation string   `json:"default_isolation" validate:"omitempty,oneof=read_committed repeatable_read serializable"`
	DefaultTimeout   Duration `json:"default_timeout"`
	LockTimeout      Duration `json:"lock_timeout"`
	MaxRetries       int      `json:"max_retries" validate:"gte=0"`
	MetricsEnabled   bool     `json:"metrics_enabled"`
}

// Storage 描述原始媒体的存储后端。
type Storage struct {
	Driver    string `json:"driver" validate:"omitempty,oneof=memory local s3"`
	LocalRoot string `json:"local_root" validate:"required_if=Driver local"`
	S3        S3     `json:"s3"`
}

// S3 描述 S3 兼容存储。
type S3 struct {
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint" validate:"omitempty,url"`
	Prefix   string `json:"prefix"`
}

// Messaging 汇总消息通道。
type Messaging struct {
	EncodeRequests  EncodeRequests  `json:"encode_requests"`
	EncodingResults EncodingResults `json:"encoding_results"`
	Outbox          OutboxPublisher `json:"outbox"`
}

// PubSub 是 Pub/Sub 通道的公共字段。
type PubSub struct {
	ProjectID           string   `json:"project_id"`
	TopicID             string   `json:"topic_id"`
	SubscriptionID      string   `json:"subscription_id"`
	OrderingKeyEnabled  bool     `json:"ordering_key_enabled"`
	LoggingEnabled      bool     `json:"logging_enabled"`
	MetricsEnabled      bool     `json:"metrics_enabled"`
	EmulatorEndpoint    string   `json:"emulator_endpoint"`
	PublishTimeout      Duration `json:"publish_timeout"`
	ExactlyOnceDelivery bool     `json:"exactly_once_delivery"`
	Receive             Receive  `json:"receive"`
}

// Receive 描述订阅拉取参数。
type Receive struct {
	NumGoroutines          int      `json:"num_goroutines" validate:"gte=0"`
	MaxOutstandingMessages int      `json:"max_outstanding_messages" validate:"gte=0"`
	MaxOutstandingBytes    int      `json:"max_outstanding_bytes" validate:"gte=0"`
	MaxExtension           Duration `json:"max_extension"`
	MaxExtensionPeriod     Duration `json:"max_extension_period"`
}

// EncodeRequests 描述编码请求的出站通道。
type EncodeRequests struct {
	PubSub
	PublishMode string `json:"publish_mode" validate:"omitempty,oneof=outbox pubsub"`
}

// EncodingResults 描述编码结果的入站通道。
type EncodingResults struct {
	PubSub
	DeadLetterTopicID string `json:"dead_letter_topic_id"`
	StalePolicy       string `json:"stale_policy" validate:"omitempty,oneof=last_write_wins keep_terminal"`
	Inbox             Inbox  `json:"inbox"`
}

// Inbox 描述入站去重表的消费参数。
type Inbox struct {
	SourceService  string `json:"source_service"`
	MaxConcurrency int    `json:"max_concurrency" validate:"gte=0"`
	LoggingEnabled *bool  `json:"logging_enabled"`
	MetricsEnabled *bool  `json:"metrics_enabled"`
}

// OutboxPublisher 描述 Outbox 投递参数。
type OutboxPublisher struct {
	Schema         string   `json:"schema"`
	BatchSize      int      `json:"batch_size" validate:"gte=0"`
	TickInterval   Duration `json:"tick_interval"`
	InitialBackoff Duration `json:"initial_backoff"`
	MaxBackoff     Duration `json:"max_backoff"`
	MaxAttempts    int      `json:"max_attempts" validate:"gte=0"`
	PublishTimeout Duration `json:"publish_timeout"`
	Workers        int      `json:"workers" validate:"gte=0"`
	LockTTL        Duration `json:"lock_ttl"`
	LoggingEnabled *bool    `json:"logging_enabled"`
	MetricsEnabled *bool    `json:"metrics_enabled"`
}

// Reconciler 描述 PENDING 槽位对账任务。
type Reconciler struct {
	Interval    Duration `json:"interval"`
	StaleAfter  Duration `json:"stale_after"`
	BatchSize   int      `json:"batch_size" validate:"gte=0"`
	Concurrency int      `json:"concurrency" validate:"gte=0"`
}

// Observability 描述 tracing 与 metrics 导出。
type Observability struct {
	GlobalAttributes map[string]string `json:"global_attributes"`
	Tracing          Tracing           `json:"tracing"`
	Metrics          Metrics           `json:"metrics"`
}

// Tracing 描述追踪导出。
type Tracing struct {
	Enabled            bool              `json:"enabled"`
	Exporter           string            `json:"exporter"`
	Endpoint           string            `json:"endpoint"`
	Headers            map[string]string `json:"headers"`
	Insecure           bool              `json:"insecure"`
	SamplingRatio      float64           `json:"sampling_ratio" validate:"gte=0,lte=1"`
	BatchTimeout       Duration          `json:"batch_timeout"`
	ExportTimeout      Duration          `json:"export_timeout"`
	MaxQueueSize       int               `json:"max_queue_size" validate:"gte=0"`
	MaxExportBatchSize int               `json:"max_export_batch_size" validate:"gte=0"`
	Required           bool              `json:"required"`
	Attributes         map[string]string `json:"attributes"`
}

// Metrics 描述指标导出。
type Metrics struct {
	Enabled             bool              `json:"enabled"`
	Exporter            string            `json:"exporter"`
	Endpoint            string            `json:"endpoint"`
	Headers             map[string]string `json:"headers"`
	Insecure            bool              `json:"insecure"`
	Interval            Duration          `json:"interval"`
	DisableRuntimeStats bool              `json:"disable_runtime_stats"`
	Required            bool              `json:"required"`
	ResourceAttributes  map[string]string `json:"resource_attributes"`
	GRPCEnabled         bool              `json:"grpc_enabled"`
	GRPCIncludeHealth   bool              `json:"grpc_include_health"`
}
