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

package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ecoforge/internal/domain"
	"ecoforge/internal/memory"
	"ecoforge/internal/observability"
	"ecoforge/internal/tooladapter"
	"ecoforge/pkg/errors"
	"ecoforge/pkg/log"
	"ecoforge/pkg/metrics"
	"ecoforge/pkg/tracing"
)

// Runner 固定拓扑的流水线驱动：
// Supervisor → 并行领域专家 → Synthesizer → Refiner（有界循环）→ Evaluator。
// 下游阶段对同一 run 严格串行；不同 session 的 run 可并发，状态完全隔离。
type Runner struct {
	supervisor *Supervisor
	experts    map[domain.Domain]Expert
	synth      *Synthesizer
	refiner    *Refiner
	eval       *Evaluator
	memory     *memory.Manager
	tools      *tooladapter.Adapter
	logger     *log.Logger
	emitter    *observability.Emitter

	expertTimeout time.Duration
}

// RunnerOptions Runner 构造参数
type RunnerOptions struct {
	Experts       map[domain.Domain]Expert
	Memory        *memory.Manager
	Tools         *tooladapter.Adapter
	Logger        *log.Logger
	Emitter       *observability.Emitter
	ExpertTimeout time.Duration
	MaxPasses     int
}

// NewRunner 创建流水线驱动
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Experts == nil {
		opts.Experts = DefaultExperts()
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewManager(memory.ManagerOptions{})
	}
	if opts.ExpertTimeout <= 0 {
		opts.ExpertTimeout = 5 * time.Second
	}
	return &Runner{
		supervisor:    NewSupervisor(),
		experts:       opts.Experts,
		synth:         NewSynthesizer(),
		refiner:       NewRefiner(opts.MaxPasses, opts.Tools, opts.Emitter),
		eval:          NewEvaluator(),
		memory:        opts.Memory,
		tools:         opts.Tools,
		logger:        opts.Logger,
		emitter:       opts.Emitter,
		expertTimeout: opts.ExpertTimeout,
	}
}

// Analyze 执行一次完整分析 run。
// 空输入在 dispatch 前拒绝，不产生任何状态。fan-in、synthesis 与每个精炼 pass 之后
// 是取消检查点；取消的 run 不写入任何 run 结果，之前持久化的会话状态保持有效。
func (r *Runner) Analyze(
	ctx context.Context,
	desc domain.LifestyleDescription,
	cons domain.Constraints,
) (*domain.ActionPlan, error) {
	if desc.Empty() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "lifestyle description is empty")
	}

	runID := "run-" + uuid.New().String()
	runStart := time.Now()

	session, err := r.memory.Open(ctx, desc.SessionID)
	if err != nil {
		return nil, r.fail(runStart, err)
	}
	desc.SessionID = session.ID

	ctx, runSpan := tracing.StartRunSpan(ctx, session.ID, runID)
	defer runSpan.End()

	priorSummary := session.Summary()
	r.memory.Append(ctx, session, "user", desc.Text)
	if err := r.memory.MaybeCompact(ctx, session); err != nil {
		return nil, r.fail(runStart, err)
	}
	if err := r.memory.Persist(ctx, session); err != nil {
		return nil, r.fail(runStart, errors.Wrap(errors.ErrPersistence, err.Error()))
	}

	// Supervisor：领域选择
	stageStart := time.Now()
	domains := r.supervisor.SelectDomains(desc)
	r.stage("supervisor", "select_domains", stageStart, map[string]any{
		"domains": domainNames(domains),
	})

	// 并行专家 fan-out，显式屏障 fan-in
	stageStart = time.Now()
	expertCtx, expertSpan := tracing.StartStageSpan(ctx, "experts")
	findings := dispatchExperts(expertCtx, r.experts, domains, ExpertInput{
		Description:  desc,
		PriorSummary: priorSummary,
		Tools:        r.tools,
	}, r.expertTimeout, r.emitter)
	expertSpan.End()
	r.stage("experts", "fan_in", stageStart, map[string]any{"count": len(findings)})
	if err := ctx.Err(); err != nil {
		return nil, r.fail(runStart, err)
	}

	// Synthesizer
	stageStart = time.Now()
	_, synthSpan := tracing.StartStageSpan(ctx, "synthesizer")
	initial := r.synth.Synthesize(findings)
	synthSpan.End()
	r.stage("synthesizer", "synthesize", stageStart, map[string]any{
		"items": len(initial.Items), "synergies": len(initial.Synergies),
	})
	if err := ctx.Err(); err != nil {
		return nil, r.fail(runStart, err)
	}

	// Refiner（内部在每个 pass 之后检查取消）
	refineCtx, refineSpan := tracing.StartStageSpan(ctx, "refiner")
	final, history, passes, err := r.refiner.Refine(refineCtx, initial, cons)
	refineSpan.End()
	if err != nil {
		return nil, r.fail(runStart, err)
	}

	// Evaluator
	stageStart = time.Now()
	_, evalSpan := tracing.StartStageSpan(ctx, "evaluator")
	plan := r.eval.Evaluate(runID, session.ID, findings, final)
	evalSpan.End()
	r.stage("evaluator", "score", stageStart, map[string]any{
		"eco_score": plan.EcoScore, "passes": passes,
	})

	// 终版落盘：findings + 版本历史 + 最终 plan 一次原子写入
	if err := r.memory.CompleteRun(ctx, session, memory.RunRecord{
		RunID:      runID,
		Findings:   findings,
		Candidates: history,
		Plan:       plan,
	}); err != nil {
		return nil, r.fail(runStart, errors.Wrap(errors.ErrPersistence, err.Error()))
	}

	r.emitter.Emit(observability.Event{
		Component:  "evaluator",
		Operation:  "session_completed",
		Duration:   time.Since(runStart),
		Outcome:    "ok",
		Provenance: string(plan.Provenance),
		Attrs:      map[string]any{"session_id": session.ID, "run_id": runID},
	})
	metrics.RunDuration.Observe(time.Since(runStart).Seconds())
	metrics.RunTotal.WithLabelValues("ok").Inc()
	if r.logger != nil {
		r.logger.Info("analysis run completed",
			"run_id", runID, "session_id", session.ID,
			"domains", len(domains), "eco_score", plan.EcoScore)
	}
	return plan, nil
}

// LastPlan 读取会话最近一次完成 run 的计划（基于最近持久化快照的时点读取）
func (r *Runner) LastPlan(ctx context.Context, sessionID string) (*domain.ActionPlan, error) {
	run, err := r.memory.LastCompletedRun(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return run.Plan, nil
}

// SessionStats 会话记忆统计
func (r *Runner) SessionStats(ctx context.Context, sessionID string) (memory.Stats, error) {
	session, err := r.memory.Open(ctx, sessionID)
	if err != nil {
		return memory.Stats{}, err
	}
	return r.memory.SessionStats(session), nil
}

func (r *Runner) stage(component, op string, start time.Time, attrs map[string]any) {
	r.emitter.Emit(observability.Event{
		Component: component,
		Operation: op,
		Duration:  time.Since(start),
		Outcome:   "ok",
		Attrs:     attrs,
	})
}

func (r *Runner) fail(runStart time.Time, err error) error {
	metrics.RunDuration.Observe(time.Since(runStart).Seconds())
	metrics.RunTotal.WithLabelValues("failed").Inc()
	if r.logger != nil {
		r.logger.Warn("analysis run failed", "error", err)
	}
	return err
}

func domainNames(domains []domain.Domain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}
