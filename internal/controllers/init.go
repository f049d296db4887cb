// Package controllers 提供 HTTP 传输层 Handler，负责解析请求、校验 DTO 并调用业务层。
// 业务错误已是 kratos Error，由 Kratos HTTP Server 统一编码为状态码与 JSON。
package controllers

import "github.com/google/wire"

// ProviderSet exposes controller/handler constructors for DI.
var ProviderSet = wire.NewSet(
	NewBaseHandler,
	NewVideoHandler,
	NewMediaHandler,
)
