package configloader

import (
	"maps"
	"time"
)

const (
	defaultHandlerTimeout = 5 * time.Second
	defaultQueryTimeout   = 3 * time.Second
	defaultUploadTimeout  = 5 * time.Minute
	defaultMaxUpload      = 512 << 20
	defaultInboxSource    = "media-encoder"
	defaultHTTPAddr       = ":8000"
	defaultGRPCAddr       = ":9000"
	defaultSchema         = "media"
)

func fromBootstrap(b *Bootstrap) RuntimeConfig {
	if b == nil {
		return RuntimeConfig{}
	}
	return RuntimeConfig{
		Server:        serverFromFile(b.Server),
		Database:      databaseFromFile(b.Data.Postgres),
		Storage:       storageFromFile(b.Storage),
		Observability: observabilityFromFile(b.Observability),
		Messaging:     messagingFromFile(b.Messaging, b.Data.Postgres),
		Reconciler: ReconcilerConfig{
			Interval:    b.Reconciler.Interval.Std(),
			StaleAfter:  b.Reconciler.StaleAfter.Std(),
			BatchSize:   b.Reconciler.BatchSize,
			Concurrency: b.Reconciler.Concurrency,
		},
	}
}

func serverFromFile(s Server) ServerConfig {
	return ServerConfig{
		HTTP: ListenerConfig{
			Network: s.HTTP.Network,
			Address: s.HTTP.Addr,
			Timeout: s.HTTP.Timeout.Std(),
		},
		GRPC: ListenerConfig{
			Network: s.GRPC.Network,
			Address: s.GRPC.Addr,
			Timeout: s.GRPC.Timeout.Std(),
		},
		JWT: ServerJWTConfig{
			ExpectedAudience: s.JWT.ExpectedAudience,
			SkipValidate:     s.JWT.SkipValidate,
			Required:         s.JWT.Required,
			HeaderKey:        firstNonEmpty(s.JWT.HeaderKey, "authorization"),
		},
		Handlers:       handlerTimeoutFromFile(s.Handlers),
		MetadataKeys:   append([]string(nil), s.MetadataKeys...),
		MaxUploadBytes: s.Handlers.MaxUploadBytes,
	}
}

func handlerTimeoutFromFile(h Handlers) HandlerTimeoutConfig {
	cfg := HandlerTimeoutConfig{
		Default: defaultHandlerTimeout,
		Command: defaultHandlerTimeout,
		Query:   defaultQueryTimeout,
	}
	if d := h.DefaultTimeout.Std(); d > 0 {
		cfg.Default = d
	}
	if d := h.CommandTimeout.Std(); d > 0 {
		cfg.Command = d
	} else {
		cfg.Command = cfg.Default
	}
	if d := h.QueryTimeout.Std(); d > 0 {
		cfg.Query = d
	} else {
		cfg.Query = firstNonZero(cfg.Query, cfg.Default)
	}
	cfg.Upload = defaultUploadTimeout
	if d := h.UploadTimeout.Std(); d > 0 {
		cfg.Upload = d
	}
	return cfg
}

func databaseFromFile(pg Postgres) DatabaseConfig {
	return DatabaseConfig{
		DSN:               pg.DSN,
		MaxOpenConns:      pg.MaxOpenConns,
		MinOpenConns:      pg.MinOpenConns,
		MaxConnLifetime:   pg.MaxConnLifetime.Std(),
		MaxConnIdleTime:   pg.MaxConnIdleTime.Std(),
		HealthCheckPeriod: pg.HealthCheckPeriod.Std(),
		Schema:            pg.Schema,
		PreparedStmts:     pg.PreparedStatementsEnabled,
		PoolMetrics:       pg.PoolMetricsEnabled,
		Transaction: TransactionConfig{
			DefaultIsolation: pg.Transaction.DefaultIsolation,
			DefaultTimeout:   pg.Transaction.DefaultTimeout.Std(),
			LockTimeout:      pg.Transaction.LockTimeout.Std(),
			MaxRetries:       pg.Transaction.MaxRetries,
			MetricsEnabled:   pg.Transaction.MetricsEnabled,
		},
	}
}

func storageFromFile(s Storage) StorageConfig {
	return StorageConfig{
		Driver:    s.Driver,
		LocalRoot: s.LocalRoot,
		S3: S3Config{
			Bucket:   s.S3.Bucket,
			Region:   s.S3.Region,
			Endpoint: s.S3.Endpoint,
			Prefix:   s.S3.Prefix,
		},
	}
}

func observabilityFromFile(obs Observability) ObservabilityConfig {
	t := obs.Tracing
	m := obs.Metrics
	return ObservabilityConfig{
		GlobalAttributes: mapCopy(obs.GlobalAttributes),
		Tracing: TracingConfig{
			Enabled:            t.Enabled,
			Exporter:           t.Exporter,
			Endpoint:           t.Endpoint,
			Headers:            mapCopy(t.Headers),
			Insecure:           t.Insecure,
			SamplingRatio:      t.SamplingRatio,
			BatchTimeout:       t.BatchTimeout.Std(),
			ExportTimeout:      t.ExportTimeout.Std(),
			MaxQueueSize:       t.MaxQueueSize,
			MaxExportBatchSize: t.MaxExportBatchSize,
			Required:           t.Required,
			Attributes:         mapCopy(t.Attributes),
		},
		Metrics: MetricsConfig{
			Enabled:             m.Enabled,
			Exporter:            m.Exporter,
			Endpoint:            m.Endpoint,
			Headers:             mapCopy(m.Headers),
			Insecure:            m.Insecure,
			Interval:            m.Interval.Std(),
			DisableRuntimeStats: m.DisableRuntimeStats,
			Required:            m.Required,
			ResourceAttributes:  mapCopy(m.ResourceAttributes),
			GRPCEnabled:         m.GRPCEnabled,
			GRPCIncludeHealth:   m.GRPCIncludeHealth,
		},
	}
}

func messagingFromFile(msg Messaging, pg Postgres) MessagingConfig {
	cfg := MessagingConfig{
		Schema: firstNonEmpty(msg.Outbox.Schema, pg.Schema),
		EncodeRequests: EncodeRequestsConfig{
			PubSub:      pubsubFromFile(msg.EncodeRequests.PubSub),
			PublishMode: msg.EncodeRequests.PublishMode,
		},
		EncodingResults: EncodingResultsConfig{
			PubSub:            pubsubFromFile(msg.EncodingResults.PubSub),
			DeadLetterTopicID: msg.EncodingResults.DeadLetterTopicID,
			StalePolicy:       msg.EncodingResults.StalePolicy,
			Inbox: InboxConfig{
				SourceService:  msg.EncodingResults.Inbox.SourceService,
				MaxConcurrency: msg.EncodingResults.Inbox.MaxConcurrency,
				LoggingEnabled: msg.EncodingResults.Inbox.LoggingEnabled,
				MetricsEnabled: msg.EncodingResults.Inbox.MetricsEnabled,
			},
		},
		Outbox: OutboxPublisherConfig{
			BatchSize:      msg.Outbox.BatchSize,
			TickInterval:   msg.Outbox.TickInterval.Std(),
			InitialBackoff: msg.Outbox.InitialBackoff.Std(),
			MaxBackoff:     msg.Outbox.MaxBackoff.Std(),
			MaxAttempts:    msg.Outbox.MaxAttempts,
			PublishTimeout: msg.Outbox.PublishTimeout.Std(),
			Workers:        msg.Outbox.Workers,
			LockTTL:        msg.Outbox.LockTTL.Std(),
			LoggingEnabled: msg.Outbox.LoggingEnabled,
			MetricsEnabled: msg.Outbox.MetricsEnabled,
		},
	}
	return cfg
}

func pubsubFromFile(ps PubSub) PubSubConfig {
	return PubSubConfig{
		ProjectID:           ps.ProjectID,
		TopicID:             ps.TopicID,
		SubscriptionID:      ps.SubscriptionID,
		OrderingKeyEnabled:  ps.OrderingKeyEnabled,
		LoggingEnabled:      ps.LoggingEnabled,
		MetricsEnabled:      ps.MetricsEnabled,
		EmulatorEndpoint:    ps.EmulatorEndpoint,
		PublishTimeout:      ps.PublishTimeout.Std(),
		ExactlyOnceDelivery: ps.ExactlyOnceDelivery,
		Receive: PubSubReceiveConfig{
			NumGoroutines:          ps.Receive.NumGoroutines,
			MaxOutstandingMessages: ps.Receive.MaxOutstandingMessages,
			MaxOutstandingBytes:    ps.Receive.MaxOutstandingBytes,
			MaxExtension:           ps.Receive.MaxExtension.Std(),
			MaxExtensionPeriod:     ps.Receive.MaxExtensionPeriod.Std(),
		},
	}
}

func mapCopy(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

func firstNonZero(durations ...time.Duration) time.Duration {
	for _, d := range durations {
		if d > 0 {
			return d
		}
	}
	return 0
}

func fillDefaults(cfg *RuntimeConfig) {
	if cfg.Server.JWT.HeaderKey == "" {
		cfg.Server.JWT.HeaderKey = "authorization"
	}
	if cfg.Server.HTTP.Address == "" {
		cfg.Server.HTTP.Address = defaultHTTPAddr
	}
	if cfg.Server.GRPC.Address == "" {
		cfg.Server.GRPC.Address = defaultGRPCAddr
	}
	if cfg.Database.Schema == "" {
		cfg.Database.Schema = defaultSchema
	}
	if cfg.Messaging.Schema == "" {
		cfg.Messaging.Schema = cfg.Database.Schema
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Messaging.EncodeRequests.PublishMode == "" {
		cfg.Messaging.EncodeRequests.PublishMode = "outbox"
	}
	if cfg.Messaging.EncodingResults.StalePolicy == "" {
		cfg.Messaging.EncodingResults.StalePolicy = "last_write_wins"
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUpload
	}
	if cfg.Messaging.EncodingResults.Inbox.SourceService == "" {
		cfg.Messaging.EncodingResults.Inbox.SourceService = defaultInboxSource
	}
	if len(cfg.Server.MetadataKeys) == 0 {
		cfg.Server.MetadataKeys = []string{
			"x-apigateway-api-userinfo",
			"x-md-",
			"x-md-idempotency-key",
		}
	}
}
