// Copyright 2026 fanjia1024

package memory

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoforge/internal/domain"
	"ecoforge/internal/observability"
	"ecoforge/pkg/metrics"
)

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, string, []Turn) (string, error) {
	return "", fmt.Errorf("model unavailable")
}

func newTestManager(t *testing.T, opts ManagerOptions) *Manager {
	t.Helper()
	m := NewManager(opts)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestOpenCreatesAndRestores(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, ManagerOptions{Store: store})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	m.Append(ctx, s, "user", "I live in a small apartment")
	require.NoError(t, m.Persist(ctx, s))

	// 新 Manager 复用同一 store，应能从快照恢复
	m2 := newTestManager(t, ManagerOptions{Store: store})
	restored, err := m2.Open(ctx, s.ID)
	require.NoError(t, err)
	turns := restored.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "I live in a small apartment", turns[0].Content)
	assert.Equal(t, StatusActive, restored.CurrentStatus())
}

func TestCompactBelowThresholdIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{CompactThreshold: 1000, KeepRecent: 2})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	m.Append(ctx, s, "user", "short turn")

	require.NoError(t, m.MaybeCompact(ctx, s))
	require.Len(t, s.Turns(), 1)
	assert.Empty(t, s.Summary())

	// 幂等：重复调用仍无操作
	require.NoError(t, m.MaybeCompact(ctx, s))
	require.Len(t, s.Turns(), 1)
}

func TestCompactReplacesOlderTurns(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{CompactThreshold: 50, KeepRecent: 2})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		m.Append(ctx, s, "user", fmt.Sprintf("turn %d %s", i, strings.Repeat("x", 20)))
	}

	require.NoError(t, m.MaybeCompact(ctx, s))

	turns := s.Turns()
	require.Len(t, turns, 3) // 摘要 turn + 保留的 2 条
	assert.True(t, turns[0].Summary)
	assert.Contains(t, turns[1].Content, "turn 4")
	assert.Contains(t, turns[2].Content, "turn 5")
	assert.NotEmpty(t, s.Summary())
}

func TestCompactSummarizerFailureLeavesLogUnchanged(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{
		Summarizer:       failingSummarizer{},
		CompactThreshold: 10,
		KeepRecent:       1,
	})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		m.Append(ctx, s, "user", fmt.Sprintf("turn number %d with some content", i))
	}
	before := s.Turns()

	// 摘要失败不是错误：跳过本轮，日志原样保留
	require.NoError(t, m.MaybeCompact(ctx, s))
	after := s.Turns()
	require.Len(t, after, len(before))
	assert.Empty(t, s.Summary())

	// 后续追加照常工作
	m.Append(ctx, s, "user", "still appending")
	assert.Len(t, s.Turns(), len(before)+1)
}

func TestCompleteRunAndPointInTimeRead(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	m.Append(ctx, s, "user", "I drive 20 miles daily")

	plan := &domain.ActionPlan{RunID: "run-1", SessionID: s.ID, EcoScore: 42}
	require.NoError(t, m.CompleteRun(ctx, s, RunRecord{RunID: "run-1", Plan: plan}))
	assert.Equal(t, StatusCompleted, s.CurrentStatus())

	// 新 run 开始后继续追加，不影响已持久化的快照
	reopened, err := m.Open(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, reopened.CurrentStatus())
	m.Append(ctx, reopened, "user", "actually I also fly a lot")

	run, err := m.LastCompletedRun(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.RunID)
	require.NotNil(t, run.Plan)
	assert.InDelta(t, 42, run.Plan.EcoScore, 1e-9)
}

func TestLastCompletedRunMissing(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{})

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, m.Persist(ctx, s))

	_, err = m.LastCompletedRun(ctx, s.ID)
	assert.Error(t, err)

	_, err = m.LastCompletedRun(ctx, "no-such-session")
	assert.Error(t, err)
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := &Record{SessionID: "s1", Status: StatusActive, Turns: []Turn{{ID: "t1", Role: "user", Content: "a"}}}
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	loaded.Turns[0].Content = "mutated"

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Turns[0].Content)
}

func TestDigestSummarizerDeterministic(t *testing.T) {
	turns := []Turn{
		{Role: "user", Content: "I commute by car"},
		{Role: "system", Content: strings.Repeat("long ", 100)},
	}
	a, err := DigestSummarizer{}.Summarize(context.Background(), "prior", turns)
	require.NoError(t, err)
	b, err := DigestSummarizer{}.Summarize(context.Background(), "prior", turns)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "prior")
	assert.Contains(t, a, "I commute by car")
}

func TestSessionStats(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, ManagerOptions{})

	s, err := m.Open(ctx, "stats-session")
	require.NoError(t, err)
	m.Append(ctx, s, "user", "hello")

	st := m.SessionStats(s)
	assert.Equal(t, "stats-session", st.SessionID)
	assert.Equal(t, 1, st.TurnCount)
	assert.Equal(t, len([]rune("hello")), st.LogSize)
	assert.False(t, st.HasSummary)
	assert.Zero(t, st.RunCount)
}

func TestCompactionMetricOutcomeLabels(t *testing.T) {
	ctx := context.Background()
	emitter := observability.NewEmitter(nil)

	okBefore := testutil.ToFloat64(metrics.CompactionTotal.WithLabelValues("ok"))
	m := newTestManager(t, ManagerOptions{CompactThreshold: 40, KeepRecent: 1, Emitter: emitter})
	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		m.Append(ctx, s, "user", "a reasonably sized turn about daily habits")
	}
	require.NoError(t, m.MaybeCompact(ctx, s))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.CompactionTotal.WithLabelValues("ok")))

	skippedBefore := testutil.ToFloat64(metrics.CompactionTotal.WithLabelValues("skipped"))
	f := newTestManager(t, ManagerOptions{
		CompactThreshold: 40, KeepRecent: 1,
		Emitter: emitter, Summarizer: failingSummarizer{},
	})
	fs, err := f.Open(ctx, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		f.Append(ctx, fs, "user", "a reasonably sized turn about daily habits")
	}
	require.NoError(t, f.MaybeCompact(ctx, fs))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(metrics.CompactionTotal.WithLabelValues("skipped")))
}
