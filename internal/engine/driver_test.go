// Copyright 2026 fanjia1024

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoforge/internal/domain"
	"ecoforge/internal/memory"
	"ecoforge/internal/tooladapter"
)

// 无 provider 的 Adapter：所有调用都走确定性 mock 回退
func newTestRunner(opts RunnerOptions) *Runner {
	if opts.Tools == nil {
		opts.Tools = tooladapter.NewAdapter(nil)
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewManager(memory.ManagerOptions{})
	}
	return NewRunner(opts)
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	r := newTestRunner(RunnerOptions{})
	_, err := r.Analyze(context.Background(), domain.LifestyleDescription{Text: "   "}, domain.Constraints{})
	require.Error(t, err)

	// 拒绝发生在 dispatch 前，不产生任何会话状态
	_, err = r.LastPlan(context.Background(), "")
	assert.Error(t, err)
}

// 核心场景：开车 + 吃肉 + 从不坐飞机，全 mock 数据
func TestAnalyzeDriveAndMeatScenario(t *testing.T) {
	mem := memory.NewManager(memory.ManagerOptions{})
	r := newTestRunner(RunnerOptions{Memory: mem})

	plan, err := r.Analyze(context.Background(),
		domain.LifestyleDescription{Text: "I drive 20 miles daily, eat meat 5 times a week, never fly"},
		domain.Constraints{})
	require.NoError(t, err)
	require.NotNil(t, plan)

	run, err := mem.LastCompletedRun(context.Background(), plan.SessionID)
	require.NoError(t, err)

	// 恰好 transport 与 diet 两个领域，各有一份 mock finding 与假设脚注
	require.Len(t, run.Findings, 2)
	seen := map[domain.Domain]bool{}
	for _, f := range run.Findings {
		seen[f.Domain] = true
		assert.Equal(t, domain.ProvenanceMock, f.Provenance)
		assert.NotEmpty(t, f.Assumptions)
		assert.False(t, f.Degraded)
	}
	assert.True(t, seen[domain.DomainTransport])
	assert.True(t, seen[domain.DomainDiet])

	// 无 home/shopping：没有强化协同
	for _, s := range plan.Final.Synergies {
		assert.NotEqual(t, domain.SynergyReinforcing, s.Kind)
	}

	// 无约束：一个 pass 即收敛（只有初版）
	assert.Len(t, run.Candidates, 1)

	assert.Greater(t, plan.EcoScore, 0.0)
	assert.Less(t, plan.EcoScore, 100.0)
	assert.Equal(t, domain.ProvenanceMock, plan.Provenance)
}

type slowExpert struct {
	d     domain.Domain
	delay time.Duration
}

func (e *slowExpert) Domain() domain.Domain { return e.d }

func (e *slowExpert) Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error) {
	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		<-time.After(e.delay) // 无视取消，迫使超时路径
	}
	return domain.DomainFinding{Domain: e.d}, nil
}

func TestAnalyzeExpertTimeoutYieldsDegradedFinding(t *testing.T) {
	experts := DefaultExperts()
	experts[domain.DomainTransport] = &slowExpert{d: domain.DomainTransport, delay: time.Second}

	mem := memory.NewManager(memory.ManagerOptions{})
	r := newTestRunner(RunnerOptions{
		Experts:       experts,
		Memory:        mem,
		ExpertTimeout: 50 * time.Millisecond,
	})

	plan, err := r.Analyze(context.Background(),
		domain.LifestyleDescription{Text: "I drive to work and eat beef"},
		domain.Constraints{})
	require.NoError(t, err)
	require.NotNil(t, plan)

	run, err := mem.LastCompletedRun(context.Background(), plan.SessionID)
	require.NoError(t, err)

	// finding 数量不变：超时的专家由降级 finding 顶替
	require.Len(t, run.Findings, 2)
	var transport *domain.DomainFinding
	for i := range run.Findings {
		if run.Findings[i].Domain == domain.DomainTransport {
			transport = &run.Findings[i]
		}
	}
	require.NotNil(t, transport)
	assert.True(t, transport.Degraded)
	assert.Equal(t, domain.ProvenanceMock, transport.Provenance)
	assert.Zero(t, transport.Footprint.Kg())
	assert.Empty(t, transport.Candidates)
}

func TestAnalyzeConstraintsShapeFinalPlan(t *testing.T) {
	r := newTestRunner(RunnerOptions{})

	plan, err := r.Analyze(context.Background(),
		domain.LifestyleDescription{Text: "I drive 30 km daily in my suv and love online shopping"},
		domain.Constraints{CostCeiling: 3})
	require.NoError(t, err)

	for _, it := range plan.Final.Items {
		if it.Recommendation.CostRank > 3 {
			assert.Equal(t, domain.ItemDropped, it.Status, it.Recommendation.Text)
		}
	}
}

func TestAnalyzeReusesSessionAcrossRuns(t *testing.T) {
	mem := memory.NewManager(memory.ManagerOptions{})
	r := newTestRunner(RunnerOptions{Memory: mem})
	ctx := context.Background()

	first, err := r.Analyze(ctx,
		domain.LifestyleDescription{Text: "I drive 20 miles daily"}, domain.Constraints{})
	require.NoError(t, err)

	// 同一会话再跑一轮：共享记忆，run 历史累积
	second, err := r.Analyze(ctx,
		domain.LifestyleDescription{SessionID: first.SessionID, Text: "I also eat beef every week"},
		domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.RunID, second.RunID)

	run, err := mem.LastCompletedRun(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, run.RunID)

	stats, err := r.SessionStats(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RunCount)
	assert.Equal(t, 2, stats.TurnCount)
}

func TestAnalyzeCancelledRunLeavesPriorStateValid(t *testing.T) {
	mem := memory.NewManager(memory.ManagerOptions{})
	r := newTestRunner(RunnerOptions{Memory: mem})
	ctx := context.Background()

	first, err := r.Analyze(ctx,
		domain.LifestyleDescription{Text: "I drive 20 miles daily"}, domain.Constraints{})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Analyze(cancelled,
		domain.LifestyleDescription{SessionID: first.SessionID, Text: "更多内容 more text"},
		domain.Constraints{})
	require.Error(t, err)

	// 之前完成的 run 依旧可读，未被取消的 run 破坏
	run, err := mem.LastCompletedRun(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, run.RunID)
}

func TestLastPlanRoundTrip(t *testing.T) {
	r := newTestRunner(RunnerOptions{})
	ctx := context.Background()

	plan, err := r.Analyze(ctx,
		domain.LifestyleDescription{Text: "vegetarian, small apartment, no car"},
		domain.Constraints{})
	require.NoError(t, err)

	got, err := r.LastPlan(ctx, plan.SessionID)
	require.NoError(t, err)
	assert.Equal(t, plan.RunID, got.RunID)
	assert.InDelta(t, plan.EcoScore, got.EcoScore, 1e-9)
}
