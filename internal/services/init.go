// Package services 包含媒体生命周期的业务用例编排。
// 该层通过构造函数注入仓储、Blob Store 与事件发布器，不直接依赖传输层或具体基础设施。
package services

import "github.com/google/wire"

// ProviderSet 暴露 Services 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewUploadVideoService,
	NewProcessMediaService,
	NewVideoCatalogService,
)
