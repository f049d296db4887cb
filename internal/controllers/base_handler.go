package controllers

import (
	"context"
	"strings"
	"time"

	metadata "github.com/bionicotaku/lingo-services-media/internal/metadata"
	"github.com/go-kratos/kratos/v2/transport"
)

// HandlerType 表示 Handler 的语义类别，用于选择超时策略。
type HandlerType int

const (
	// HandlerTypeDefault 表示未显式区分的 Handler。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 表示写模型命令 Handler。
	HandlerTypeCommand
	// HandlerTypeQuery 表示读模型查询 Handler。
	HandlerTypeQuery
	// HandlerTypeUpload 表示媒体上传，未配置时沿用 Command 超时。
	HandlerTypeUpload
)

// HandlerTimeouts 聚合不同类型 Handler 的超时策略。
type HandlerTimeouts struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
	Upload  time.Duration
}

const (
	fallbackDefaultTimeout = 5 * time.Second
	fallbackQueryTimeout   = 3 * time.Second
	headerUserInfo         = "x-apigateway-api-userinfo"
	headerIdempotencyKey   = "x-md-idempotency-key"
	headerIfMatch          = "x-md-if-match"
	headerIfNoneMatch      = "x-md-if-none-match"
)

// BaseHandler 提供公共的超时、Metadata 解析能力，供具体 Handler 内嵌复用。
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler 构造基础 Handler，并为缺省值填充合理的回退策略。
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	if timeouts.Default <= 0 {
		if timeouts.Command > 0 {
			timeouts.Default = timeouts.Command
		} else if timeouts.Query > 0 {
			timeouts.Default = timeouts.Query
		} else {
			timeouts.Default = fallbackDefaultTimeout
		}
	}
	if timeouts.Command <= 0 {
		timeouts.Command = timeouts.Default
	}
	if timeouts.Query <= 0 {
		if timeouts.Default > 0 {
			timeouts.Query = timeouts.Default
		} else {
			timeouts.Query = fallbackQueryTimeout
		}
	}
	if timeouts.Upload <= 0 {
		timeouts.Upload = timeouts.Command
	}
	return &BaseHandler{timeouts: timeouts}
}

// WithTimeout 根据 Handler 类型包装上下文，返回绑定超时的新 Context 与取消函数。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackDefaultTimeout)
	}
	var timeout time.Duration
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	case HandlerTypeUpload:
		timeout = h.timeouts.Upload
	default:
		timeout = h.timeouts.Default
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// ExtractMetadata 从 Kratos Transport 的请求头解析网关用户信息与幂等 Header，HTTP 与 gRPC 通用。
func (h *BaseHandler) ExtractMetadata(ctx context.Context) metadata.HandlerMetadata {
	tr, ok := transport.FromServerContext(ctx)
	if !ok || tr.RequestHeader() == nil {
		return metadata.HandlerMetadata{}
	}
	header := tr.RequestHeader()
	meta := metadata.HandlerMetadata{
		IdempotencyKey: firstHeader(header, headerIdempotencyKey),
		IfMatch:        firstHeader(header, headerIfMatch),
		IfNoneMatch:    firstHeader(header, headerIfNoneMatch),
	}
	rawUserInfo := firstHeader(header, headerUserInfo)
	meta.RawUserInfo = rawUserInfo
	if rawUserInfo != "" {
		if userID, err := metadata.ExtractUserIDFromUserInfo(rawUserInfo); err == nil {
			if strings.TrimSpace(userID) != "" {
				meta.UserID = userID
			} else {
				meta.InvalidUserInfo = true
			}
		} else {
			meta.InvalidUserInfo = true
		}
	}
	return meta
}

// InjectHandlerMetadata 将解析结果注入到 Context，供后续层访问。
func InjectHandlerMetadata(ctx context.Context, meta metadata.HandlerMetadata) context.Context {
	return metadata.Inject(ctx, meta)
}

// HandlerMetadataFromContext 读取上游注入的 HandlerMetadata。
func HandlerMetadataFromContext(ctx context.Context) (metadata.HandlerMetadata, bool) {
	return metadata.FromContext(ctx)
}

func firstHeader(header transport.Header, key string) string {
	return strings.TrimSpace(header.Get(key))
}
