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
	stderrors "errors"
	"sync"
	"time"

	"ecoforge/internal/observability"
	"ecoforge/pkg/errors"
	"ecoforge/pkg/log"
)

// Manager 会话记忆的唯一入口：打开、追加、压缩、持久化。
// 同一 session 的写操作串行化；读侧（LastCompletedRun/Stats）只看持久化快照，
// 与进行中的 run 互不干扰。
type Manager struct {
	store      Store
	summarizer Summarizer
	logger     *log.Logger
	emitter    *observability.Emitter

	// compactThreshold 日志总 rune 数超过该值时触发压缩
	compactThreshold int
	// keepRecent 压缩时保留的最近原始 turn 数
	keepRecent int

	mu       sync.Mutex
	sessions map[string]*Session
	writers  map[string]*sync.Mutex
}

// ManagerOptions Manager 构造参数
type ManagerOptions struct {
	Store            Store
	Summarizer       Summarizer
	Logger           *log.Logger
	Emitter          *observability.Emitter
	CompactThreshold int
	KeepRecent       int
}

// NewManager 创建 Manager；Store 为 nil 时使用进程内实现
func NewManager(opts ManagerOptions) *Manager {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Summarizer == nil {
		opts.Summarizer = DigestSummarizer{}
	}
	if opts.CompactThreshold <= 0 {
		opts.CompactThreshold = 4000
	}
	if opts.KeepRecent <= 0 {
		opts.KeepRecent = 4
	}
	return &Manager{
		store:            opts.Store,
		summarizer:       opts.Summarizer,
		logger:           opts.Logger,
		emitter:          opts.Emitter,
		compactThreshold: opts.CompactThreshold,
		keepRecent:       opts.KeepRecent,
		sessions:         make(map[string]*Session),
		writers:          make(map[string]*sync.Mutex),
	}
}

// writer 返回 session 级写锁，保证同一 session 的写操作串行
func (m *Manager) writer(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.writers[sessionID]
	if !ok {
		w = &sync.Mutex{}
		m.writers[sessionID] = w
	}
	return w
}

// Open 打开会话：已在内存中直接返回；否则尝试从持久化快照恢复；都没有则新建。
// 对已 completed 的会话重新打开会把状态置回 active，新 run 共享已压缩的记忆。
func (m *Manager) Open(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID != "" {
		m.mu.Lock()
		if s, ok := m.sessions[sessionID]; ok {
			m.mu.Unlock()
			s.BeginRun()
			return s, nil
		}
		m.mu.Unlock()

		rec, err := m.store.Load(ctx, sessionID)
		if err == nil {
			s := restore(rec)
			s.BeginRun()
			m.mu.Lock()
			m.sessions[sessionID] = s
			m.mu.Unlock()
			return s, nil
		}
		if !stderrors.Is(err, errors.ErrSessionNotFound) {
			return nil, err
		}
	}

	s := NewSession(sessionID)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Append 追加一条 turn。追加永不失败；压缩是否触发由 MaybeCompact 决定。
func (m *Manager) Append(_ context.Context, s *Session, role, content string) Turn {
	w := m.writer(s.ID)
	w.Lock()
	defer w.Unlock()
	t := NewTurn(role, content)
	s.Append(t)
	return t
}

// MaybeCompact 在日志超过阈值时执行一次压缩：
// 保留最近 keepRecent 条原始 turn，其余与既有摘要一起交给 summarizer。
// 压缩是幂等的：未超阈值时无操作。摘要失败只告警，日志保持不变，后续追加照常进行。
func (m *Manager) MaybeCompact(ctx context.Context, s *Session) error {
	w := m.writer(s.ID)
	w.Lock()
	defer w.Unlock()

	if s.LogSize() <= m.compactThreshold {
		return nil
	}

	turns := s.Turns()
	// 去掉已有摘要 turn，只压缩原始内容
	raw := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if !t.Summary {
			raw = append(raw, t)
		}
	}
	if len(raw) <= m.keepRecent {
		return nil
	}
	older := raw[:len(raw)-m.keepRecent]
	kept := raw[len(raw)-m.keepRecent:]

	start := time.Now()
	summary, err := m.summarizer.Summarize(ctx, s.Summary(), older)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("memory compaction skipped, summarizer failed",
				"session_id", s.ID, "error", err)
		}
		m.emitter.Emit(observability.Event{
			Component: "memory",
			Operation: "compact",
			Duration:  time.Since(start),
			Outcome:   "skipped",
			Attrs:     map[string]any{"session_id": s.ID},
		})
		return nil
	}

	s.replaceLog(summary, kept)
	m.emitter.Emit(observability.Event{
		Component: "memory",
		Operation: "compact",
		Duration:  time.Since(start),
		Outcome:   "ok",
		Attrs:     map[string]any{"session_id": s.ID, "compacted_turns": len(older)},
	})
	return nil
}

// Persist 把会话当前状态写入持久化后端。写入的是深拷贝快照，
// 后端整体替换旧记录，并发读者要么看到旧快照、要么看到新快照。
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	w := m.writer(s.ID)
	w.Lock()
	snap := s.snapshot()
	w.Unlock()
	if err := m.store.Save(ctx, snap); err != nil {
		return errors.Wrapf(err, "persist session %s", s.ID)
	}
	return nil
}

// CompleteRun 记录一次完成的 run（findings、候选历史、最终 plan），
// 把会话标记为 completed 并持久化。每个 run 只调用一次。
func (m *Manager) CompleteRun(ctx context.Context, s *Session, run RunRecord) error {
	run.CompletedAt = time.Now()
	w := m.writer(s.ID)
	w.Lock()
	s.AddRun(run)
	snap := s.snapshot()
	w.Unlock()
	if err := m.store.Save(ctx, snap); err != nil {
		return errors.Wrapf(err, "persist completed run %s", run.RunID)
	}
	return nil
}

// LastCompletedRun 从最近一次持久化快照读取最后一个完成的 run。
// 只依赖快照，不受进行中 run 的影响。
func (m *Manager) LastCompletedRun(ctx context.Context, sessionID string) (*RunRecord, error) {
	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	run := rec.LastCompletedRun()
	if run == nil {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "session %s has no completed run", sessionID)
	}
	return run, nil
}

// Stats 会话记忆的统计信息
type Stats struct {
	SessionID  string `json:"session_id"`
	Status     Status `json:"status"`
	TurnCount  int    `json:"turn_count"`
	LogSize    int    `json:"log_size"`
	HasSummary bool   `json:"has_summary"`
	RunCount   int    `json:"run_count"`
}

// SessionStats 返回会话的统计信息
func (m *Manager) SessionStats(s *Session) Stats {
	return Stats{
		SessionID:  s.ID,
		Status:     s.CurrentStatus(),
		TurnCount:  len(s.Turns()),
		LogSize:    s.LogSize(),
		HasSummary: s.Summary() != "",
		RunCount:   len(s.Runs()),
	}
}

// Close 关闭持久化后端
func (m *Manager) Close() error {
	return m.store.Close()
}
