// Copyright 2026 fanjia1024
// 进程内持久化后端，开发与测试用。

package memory

import (
	"context"
	"encoding/json"
	"sync"

	"ecoforge/pkg/errors"
)

// MemoryStore 进程内 Store；快照以 JSON 序列化保存，
// 读写两侧都不共享指针，保证读到的是不可变快照。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrPersistence, err.Error())
	}
	m.mu.Lock()
	m.data[rec.SessionID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Record, error) {
	m.mu.RLock()
	raw, ok := m.data[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "session %s", sessionID)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrPersistence, err.Error())
	}
	return &rec, nil
}

func (m *MemoryStore) Close() error { return nil }
