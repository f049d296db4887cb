// Package metadata 在 Context 中传递网关注入的调用方信息，供控制器日志与上传审计使用。
package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// HandlerMetadata 是从请求头解析出的调用方信息。
type HandlerMetadata struct {
	IdempotencyKey  string
	IfMatch         string
	IfNoneMatch     string
	UserID          string
	RawUserInfo     string
	InvalidUserInfo bool
}

// IsZero 判断是否未解析到任何信息。
func (m HandlerMetadata) IsZero() bool {
	return m == HandlerMetadata{}
}

type ctxKey struct{}

// Inject 将非空的 HandlerMetadata 写入 Context。
func Inject(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取 Inject 写入的 HandlerMetadata。
func FromContext(ctx context.Context) (HandlerMetadata, bool) {
	if ctx == nil {
		return HandlerMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(HandlerMetadata)
	return meta, ok
}

// ErrUserInfoEncoding 表示网关 userinfo 头不是合法的 base64 JSON。
var ErrUserInfoEncoding = errors.New("metadata: undecodable userinfo header")

// 依次尝试的用户标识 claim。
var userIDClaims = []string{"sub", "user_id", "uid"}

// ExtractUserIDFromUserInfo 解析 X-Apigateway-Api-Userinfo 头（base64 编码的 JWT claims）中的用户标识。
// 头为空时返回空串与 nil。
func ExtractUserIDFromUserInfo(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	var payload []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if payload, err = enc.DecodeString(raw); err == nil {
			break
		}
	}
	if err != nil {
		return "", ErrUserInfoEncoding
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrUserInfoEncoding
	}
	for _, key := range userIDClaims {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}
