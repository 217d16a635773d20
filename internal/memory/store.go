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

package memory

import (
	"context"

	"ecoforge/pkg/config"
	"ecoforge/pkg/errors"
)

// Store 会话记录的持久化后端。Save 必须整体替换旧快照，
// 并发的 Load 要么看到旧快照、要么看到新快照，不会看到写了一半的状态。
type Store interface {
	// Save 原子地写入快照
	Save(ctx context.Context, rec *Record) error
	// Load 读取最近一次持久化的快照；不存在返回 errors.ErrSessionNotFound
	Load(ctx context.Context, sessionID string) (*Record, error)
	Close() error
}

// NewStore 根据配置创建持久化后端
func NewStore(ctx context.Context, cfg config.MemoryConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPGStore(ctx, cfg.DSN)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown memory store type %q", cfg.Store)
	}
}
