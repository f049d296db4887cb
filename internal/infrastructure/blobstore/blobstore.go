// Package blobstore 提供原始媒体文件的存储后端：内存、本地文件系统与 S3。
//
// 返回的位置句柄对业务层不透明，仅用于记录在槽位上并随编码请求发出。
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// 支持的存储驱动。
const (
	DriverMemory = "memory"
	DriverLocal  = "local"
	DriverS3     = "s3"
)

// ErrInvalidKey 表示路径提示为空或试图越出存储根目录。
var ErrInvalidKey = errors.New("blobstore: invalid key")

// Store 写入一个完整对象并返回其位置句柄。
type Store interface {
	Store(ctx context.Context, pathHint string, content []byte, contentType string) (string, error)
}

// Config 描述存储后端配置。
type Config struct {
	Driver    string
	LocalRoot string
	S3        S3Config
}

// S3Config 描述 S3 后端连接参数。Endpoint 非空时使用 path-style 访问（MinIO 等兼容实现）。
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// NewStore 按驱动构造存储后端（供 Wire 注入使用）。
func NewStore(cfg Config, logger log.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(logger), nil
	case DriverLocal:
		return NewLocalStore(cfg.LocalRoot, logger)
	case DriverS3:
		return NewS3Store(cfg.S3, logger)
	default:
		return nil, fmt.Errorf("blobstore: unsupported driver %q", cfg.Driver)
	}
}

// cleanKey 规范化路径提示，拒绝空值与 ".." 逃逸。
func cleanKey(pathHint string) (string, error) {
	hint := strings.TrimSpace(strings.ReplaceAll(pathHint, "\\", "/"))
	if hint == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidKey)
	}
	for _, segment := range strings.Split(hint, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q escapes root", ErrInvalidKey, pathHint)
		}
	}
	key := strings.TrimPrefix(path.Clean("/"+hint), "/")
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, pathHint)
	}
	return key, nil
}
