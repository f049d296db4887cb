package repositories

import "github.com/google/wire"

// ProviderSet 暴露 Repository 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewVideoRepository,     // ← 视频聚合
	NewReferenceRepository, // ← 目录引用校验
	NewOutboxRepository,    // ← Outbox 仓储
	NewInboxRepository,     // ← 编码结果去重
)
