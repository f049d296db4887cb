package blobstore

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// MemoryPrefix 是内存后端位置句柄的前缀。
const MemoryPrefix = "memory://"

// MemoryStore 将对象保存在进程内存中，用于本地运行与测试。
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	log     *log.Helper
}

type memoryObject struct {
	content     []byte
	contentType string
}

// NewMemoryStore 构造空的内存存储。
func NewMemoryStore(logger log.Logger) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		log:     log.NewHelper(logger),
	}
}

// Store 保存内容副本，同一路径重复写入直接覆盖。
func (s *MemoryStore) Store(ctx context.Context, pathHint string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(pathHint)
	if err != nil {
		return "", err
	}
	buf := make([]byte, len(content))
	copy(buf, content)

	s.mu.Lock()
	s.objects[key] = memoryObject{content: buf, contentType: contentType}
	s.mu.Unlock()

	s.log.WithContext(ctx).Debugf("blob stored in memory: key=%s size=%d", key, len(buf))
	return MemoryPrefix + key, nil
}

// Get 按位置句柄读取对象内容。
func (s *MemoryStore) Get(location string) ([]byte, string, bool) {
	key := location
	if len(key) > len(MemoryPrefix) && key[:len(MemoryPrefix)] == MemoryPrefix {
		key = key[len(MemoryPrefix):]
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.content, obj.contentType, true
}

// Len 返回已保存的对象数量。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
