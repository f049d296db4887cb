package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kratos/kratos/v2/log"
)

// LocalStore 将对象写入本地目录，位置句柄为文件的绝对路径。
type LocalStore struct {
	root string
	log  *log.Helper
}

// NewLocalStore 构造本地文件系统存储，root 不存在时自动创建。
func NewLocalStore(root string, logger log.Logger) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blobstore: local root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blobstore: resolve local root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create local root: %w", err)
	}
	return &LocalStore{root: abs, log: log.NewHelper(logger)}, nil
}

// Store 先写临时文件再原子重命名，读者不会看到半截文件。
func (s *LocalStore) Store(ctx context.Context, pathHint string, content []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(pathHint)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blobstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("blobstore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("blobstore: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("blobstore: move %s: %w", key, err)
	}

	s.log.WithContext(ctx).Infof("blob stored on disk: path=%s size=%d", target, len(content))
	return target, nil
}
