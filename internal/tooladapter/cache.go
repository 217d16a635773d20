// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tooladapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ecoforge/pkg/config"
)

// CacheStore provider 响应缓存接口
type CacheStore interface {
	// Set 设置缓存
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get 获取缓存并反序列化到 dest；未命中返回 error
	Get(ctx context.Context, key string, dest interface{}) error
	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
	// Close 关闭缓存连接
	Close() error
}

// NewCache 根据配置创建缓存；type=none 返回 nil（禁用）
func NewCache(cfg config.CacheConfig) (CacheStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.Addr, cfg.DB)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// MemoryCache 内存缓存实现
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryCacheItem
}

type memoryCacheItem struct {
	value      []byte
	expiration int64
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryCacheItem)}
}

// Set 实现 CacheStore
func (s *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	var exp int64
	if expiration > 0 {
		exp = time.Now().Add(expiration).UnixNano()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryCacheItem{value: data, expiration: exp}
	return nil
}

// Get 实现 CacheStore
func (s *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	if item.expiration > 0 && time.Now().UnixNano() > item.expiration {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return fmt.Errorf("cache expired: %s", key)
	}
	return json.Unmarshal(item.value, dest)
}

// Delete 实现 CacheStore
func (s *MemoryCache) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Close 实现 CacheStore
func (s *MemoryCache) Close() error { return nil }

// RedisCache Redis 缓存实现（多实例共享 provider 响应）
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(addr string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Set 实现 CacheStore
func (s *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, expiration).Err()
}

// Get 实现 CacheStore
func (s *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("cache miss: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Delete 实现 CacheStore
func (s *RedisCache) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Close 实现 CacheStore
func (s *RedisCache) Close() error { return s.client.Close() }
