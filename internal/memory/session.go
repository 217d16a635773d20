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
	"sync"
	"time"

	"github.com/google/uuid"

	"ecoforge/internal/domain"
)

// Status 会话状态
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Turn 会话日志中的一条记录；Summary=true 表示 compaction 生成的摘要 turn
type Turn struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"` // user | system | stage
	Content string    `json:"content"`
	Summary bool      `json:"summary,omitempty"`
	At      time.Time `json:"at"`
}

// NewTurn 创建一条 turn
func NewTurn(role, content string) Turn {
	return Turn{
		ID:      "turn-" + uuid.New().String(),
		Role:    role,
		Content: content,
		At:      time.Now(),
	}
}

// RunRecord 单次分析 run 的持久化记录：findings、候选版本历史与最终 plan
type RunRecord struct {
	RunID       string                       `json:"run_id"`
	Findings    []domain.DomainFinding       `json:"findings,omitempty"`
	Candidates  []domain.ActionPlanCandidate `json:"candidates,omitempty"`
	Plan        *domain.ActionPlan           `json:"plan,omitempty"`
	CompletedAt time.Time                    `json:"completed_at,omitempty"`
}

// Session 会话：仅由 Memory Manager 持有；其余组件通过 session id 引用
type Session struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	turns   []Turn
	summary string // compaction 生成的滚动摘要
	runs    []RunRecord

	mu sync.RWMutex
}

// NewSession 创建空会话；id 为空时自动分配
func NewSession(id string) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{ID: id, Status: StatusActive, CreatedAt: now, UpdatedAt: now}
}

// Append 追加一条原始 turn
func (s *Session) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.turns = append(s.turns, t)
}

// Turns 返回日志副本
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// CurrentStatus 返回会话状态
func (s *Session) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Summary 返回当前滚动摘要
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// LogSize 原始日志当前的总长度（rune 数；Summary turn 不计入）
func (s *Session) LogSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	size := 0
	for _, t := range s.turns {
		if !t.Summary {
			size += len([]rune(t.Content))
		}
	}
	return size
}

// replaceLog compaction 用：以摘要 turn + 保留的原始 turn 替换日志
func (s *Session) replaceLog(summary string, kept []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.summary = summary
	summaryTurn := Turn{
		ID:      "turn-" + uuid.New().String(),
		Role:    "system",
		Content: summary,
		Summary: true,
		At:      s.UpdatedAt,
	}
	s.turns = append([]Turn{summaryTurn}, kept...)
}

// AddRun 记录一次完成的 run 并置状态 completed
func (s *Session) AddRun(run RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.runs = append(s.runs, run)
	s.Status = StatusCompleted
}

// BeginRun 重新激活已完成会话（新 run 共享已 compacted 的记忆）
func (s *Session) BeginRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusActive
}

// Runs 返回 run 历史副本
func (s *Session) Runs() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.runs) == 0 {
		return nil
	}
	out := make([]RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

// snapshot 导出可持久化的 Record（深拷贝，persist 原子性的基础）
func (s *Session) snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := &Record{
		SessionID: s.ID,
		Status:    s.Status,
		Summary:   s.summary,
		UpdatedAt: s.UpdatedAt,
	}
	if len(s.turns) > 0 {
		r.Turns = make([]Turn, len(s.turns))
		copy(r.Turns, s.turns)
	}
	if len(s.runs) > 0 {
		r.Runs = make([]RunRecord, len(s.runs))
		copy(r.Runs, s.runs)
	}
	return r
}

// restore 从持久化 Record 恢复会话
func restore(r *Record) *Session {
	s := NewSession(r.SessionID)
	s.Status = r.Status
	s.summary = r.Summary
	s.UpdatedAt = r.UpdatedAt
	if len(r.Turns) > 0 {
		s.turns = make([]Turn, len(r.Turns))
		copy(s.turns, r.Turns)
	}
	if len(r.Runs) > 0 {
		s.runs = make([]RunRecord, len(r.Runs))
		copy(s.runs, r.Runs)
	}
	return s
}

// Record Session 的持久化形态；仅由 Memory Manager 创建与更新
type Record struct {
	SessionID string      `json:"session_id"`
	Status    Status      `json:"status"`
	Summary   string      `json:"summary,omitempty"`
	Turns     []Turn      `json:"turns,omitempty"`
	Runs      []RunRecord `json:"runs,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// LastCompletedRun 最近一次带最终 plan 的 run；无则返回 nil
func (r *Record) LastCompletedRun() *RunRecord {
	if r == nil {
		return nil
	}
	for i := len(r.Runs) - 1; i >= 0; i-- {
		if r.Runs[i].Plan != nil {
			run := r.Runs[i]
			return &run
		}
	}
	return nil
}
